package terminal

import (
	"fmt"
	"io"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/compliance-atlas/pkg/services/catalogue"
	"github.com/de-tools/compliance-atlas/pkg/services/collect"
	"github.com/de-tools/compliance-atlas/pkg/services/history"
	"github.com/de-tools/compliance-atlas/pkg/services/scan"
	"github.com/de-tools/compliance-atlas/pkg/store/duckdb"
	scanstore "github.com/de-tools/compliance-atlas/pkg/store/duckdb/scan"
)

// CLI represents the command-line interface
type CLI struct {
	reporter *Reporter
	exporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		reporter: NewReporter(opts.Output),
		exporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atlas",
		Short: "Cloud compliance scanning tool",
	}

	cmd.AddCommand(cli.newScanCmd())
	cmd.AddCommand(cli.newHistoryCmd())

	return cmd
}

func (cli *CLI) newScanCmd() *cobra.Command {
	var (
		accountID string
		region    string
		dbPath    string
		asTable   bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a compliance scan and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load AWS config: %w", err)
			}

			cat, err := catalogue.Load()
			if err != nil {
				return fmt.Errorf("failed to load rule catalogue: %w", err)
			}

			db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
			if err != nil {
				return fmt.Errorf("failed to open scan history: %w", err)
			}
			defer db.Close()

			store, err := scanstore.NewStore(db)
			if err != nil {
				return err
			}

			orchestrator := scan.NewOrchestrator(collect.NewAWSCollector(awsCfg), store, cat)
			result, err := orchestrator.RunScan(ctx, accountID, region, domain.TriggerManual)
			if err != nil {
				return err
			}

			if asTable {
				return cli.exporter.Handle(result)
			}
			return cli.reporter.Handle(result)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "AWS account id to scan")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "AWS region to scan")
	cmd.Flags().StringVar(&dbPath, "db", "compliance-atlas.db", "Path to the scan history database")
	cmd.Flags().BoolVar(&asTable, "table", false, "Render violations as a table")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func (cli *CLI) newHistoryCmd() *cobra.Command {
	var (
		accountID string
		dbPath    string
		page      int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously recorded scans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
			if err != nil {
				return fmt.Errorf("failed to open scan history: %w", err)
			}
			defer db.Close()

			store, err := scanstore.NewStore(db)
			if err != nil {
				return err
			}
			reader, err := history.NewReader(store)
			if err != nil {
				return err
			}

			summaries, err := reader.List(ctx, page, limit, accountID)
			if err != nil {
				return err
			}

			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s/%s  score=%d  violations=%d\n",
					s.Timestamp.Format("2006-01-02 15:04"),
					s.ID, s.AccountID, s.Region,
					s.ComplianceScore, s.ViolationCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Filter by AWS account id")
	cmd.Flags().StringVar(&dbPath, "db", "compliance-atlas.db", "Path to the scan history database")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")

	return cmd
}
