package scan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/compliance-atlas/pkg/models/store"
)

var (
	ErrNotFound = errors.New("scan not found")
	ErrNoScans  = errors.New("no scans recorded yet")
)

// Store is the scan history log: written once per completed scan, read many
// times, never updated. History listing orders by (timestamp, id) ascending so
// pages stay stable while new scans append. An OFFSET over an append-only
// total order can neither skip nor duplicate earlier rows.
type Store interface {
	Commit(ctx context.Context, record store.ScanRecord, violations []store.ViolationRecord) error
	List(ctx context.Context, filter store.ScanFilter) ([]store.ScanRecord, error)
	Get(ctx context.Context, scanID string) (*store.ScanRecord, []store.ViolationRecord, error)
	Latest(ctx context.Context, accountID string) (*store.ScanRecord, []store.ViolationRecord, error)
	Since(ctx context.Context, accountID string, since time.Time) ([]store.ScanRecord, error)
}

type scanStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &scanStore{db: db}, nil
}

// Commit writes the scan row and all its violations in one transaction; a
// failed scan leaves no trace in history.
func (s *scanStore) Commit(ctx context.Context, record store.ScanRecord, violations []store.ViolationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (
			id, account_id, region, timestamp, triggered_by,
			resources_scanned, checks_evaluated, rule_faults, compliance_score,
			critical_count, high_count, medium_count, low_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.AccountID,
		record.Region,
		record.Timestamp,
		record.TriggeredBy,
		record.ResourcesScanned,
		record.ChecksEvaluated,
		record.RuleFaults,
		record.ComplianceScore,
		record.CriticalCount,
		record.HighCount,
		record.MediumCount,
		record.LowCount,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scan_violations (
			scan_id, position, resource_id, resource_kind, rule_id,
			severity, framework, control_ref, description, remediation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare violation insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range violations {
		_, err = stmt.ExecContext(ctx,
			v.ScanID,
			v.Position,
			v.ResourceID,
			v.ResourceKind,
			v.RuleID,
			v.Severity,
			v.Framework,
			v.ControlRef,
			v.Description,
			v.Remediation,
		)
		if err != nil {
			return fmt.Errorf("insert violation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan: %w", err)
	}
	return nil
}

const scanColumns = `
	id, account_id, region, timestamp, triggered_by,
	resources_scanned, checks_evaluated, rule_faults, compliance_score,
	critical_count, high_count, medium_count, low_count`

func (s *scanStore) List(ctx context.Context, filter store.ScanFilter) ([]store.ScanRecord, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	query := `SELECT` + scanColumns + ` FROM scans`
	args := []any{}
	if filter.AccountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, filter.AccountID)
	}
	query += ` ORDER BY timestamp ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *scanStore) Get(ctx context.Context, scanID string) (*store.ScanRecord, []store.ViolationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+scanColumns+` FROM scans WHERE id = ?`, scanID)

	record, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get scan: %w", err)
	}

	violations, err := s.violationsFor(ctx, scanID)
	if err != nil {
		return nil, nil, err
	}
	return record, violations, nil
}

func (s *scanStore) Latest(ctx context.Context, accountID string) (*store.ScanRecord, []store.ViolationRecord, error) {
	query := `SELECT` + scanColumns + ` FROM scans`
	args := []any{}
	if accountID != "" {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT 1`

	record, err := scanRow(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoScans
	}
	if err != nil {
		return nil, nil, fmt.Errorf("latest scan: %w", err)
	}

	violations, err := s.violationsFor(ctx, record.ID)
	if err != nil {
		return nil, nil, err
	}
	return record, violations, nil
}

func (s *scanStore) Since(ctx context.Context, accountID string, since time.Time) ([]store.ScanRecord, error) {
	query := `SELECT` + scanColumns + ` FROM scans WHERE timestamp >= ?`
	args := []any{since}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scans since: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *scanStore) violationsFor(ctx context.Context, scanID string) ([]store.ViolationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scan_id, position, resource_id, resource_kind, rule_id,
			severity, framework, control_ref, description, remediation
		FROM scan_violations
		WHERE scan_id = ?
		ORDER BY position ASC`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	violations := make([]store.ViolationRecord, 0)
	for rows.Next() {
		var v store.ViolationRecord
		err := rows.Scan(
			&v.ScanID, &v.Position, &v.ResourceID, &v.ResourceKind, &v.RuleID,
			&v.Severity, &v.Framework, &v.ControlRef, &v.Description, &v.Remediation,
		)
		if err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*store.ScanRecord, error) {
	var r store.ScanRecord
	err := row.Scan(
		&r.ID, &r.AccountID, &r.Region, &r.Timestamp, &r.TriggeredBy,
		&r.ResourcesScanned, &r.ChecksEvaluated, &r.RuleFaults, &r.ComplianceScore,
		&r.CriticalCount, &r.HighCount, &r.MediumCount, &r.LowCount,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRows(rows *sql.Rows) ([]store.ScanRecord, error) {
	records := make([]store.ScanRecord, 0)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}
