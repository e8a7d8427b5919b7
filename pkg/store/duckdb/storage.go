package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ScansSchema = `
	CREATE TABLE IF NOT EXISTS scans (
		id VARCHAR PRIMARY KEY,
		account_id VARCHAR NOT NULL,
		region VARCHAR NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		triggered_by VARCHAR NOT NULL,
		resources_scanned INTEGER NOT NULL,
		checks_evaluated INTEGER NOT NULL,
		rule_faults INTEGER NOT NULL,
		compliance_score INTEGER NOT NULL,
		critical_count INTEGER NOT NULL,
		high_count INTEGER NOT NULL,
		medium_count INTEGER NOT NULL,
		low_count INTEGER NOT NULL
	);
`

const ViolationsSchema = `
	CREATE TABLE IF NOT EXISTS scan_violations (
		scan_id VARCHAR NOT NULL,
		position INTEGER NOT NULL,
		resource_id VARCHAR NOT NULL,
		resource_kind VARCHAR NOT NULL,
		rule_id VARCHAR NOT NULL,
		severity VARCHAR NOT NULL,
		framework VARCHAR NOT NULL,
		control_ref VARCHAR NOT NULL,
		description VARCHAR NOT NULL,
		remediation VARCHAR NOT NULL,
		PRIMARY KEY (scan_id, position)
	);
`

var bootQueries = []string{
	ScansSchema,
	ViolationsSchema,
}

type Settings struct {
	DbPath string
}

// NewDB opens a DuckDB database and applies the scan history schema before
// the first connection is handed out.
func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			if _, err := exec.ExecContext(context.Background(), query, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(c), nil
}
