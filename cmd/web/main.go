package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/server"
	"github.com/de-tools/compliance-atlas/pkg/services/catalogue"
	"github.com/de-tools/compliance-atlas/pkg/services/collect"
	"github.com/de-tools/compliance-atlas/pkg/services/config"
	"github.com/de-tools/compliance-atlas/pkg/services/history"
	"github.com/de-tools/compliance-atlas/pkg/services/monitor"
	"github.com/de-tools/compliance-atlas/pkg/services/review"
	"github.com/de-tools/compliance-atlas/pkg/services/scan"
	"github.com/de-tools/compliance-atlas/pkg/store/duckdb"
	scanstore "github.com/de-tools/compliance-atlas/pkg/store/duckdb/scan"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the compliance scanning web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "atlas.yaml",
		"Path to the server config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	cat, err := catalogue.Load()
	if err != nil {
		return fmt.Errorf("failed to load rule catalogue: %w", err)
	}
	logger.Info().
		Str("version", cat.Version()).
		Int("rules", cat.TotalRules()).
		Msg("rule catalogue loaded")

	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: cfg.Storage.DbPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	store, err := scanstore.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create scan store: %w", err)
	}

	reader, err := history.NewReader(store)
	if err != nil {
		return fmt.Errorf("failed to create history reader: %w", err)
	}

	collector := collect.NewAWSCollector(awsCfg)
	orchestrator := scan.NewOrchestrator(collector, store, cat)

	reviewer, err := review.NewReviewer(collector)
	if err != nil {
		return fmt.Errorf("failed to create access reviewer: %w", err)
	}

	if cfg.Monitoring.Enabled {
		targets := make([]monitor.Target, 0, len(cfg.Monitoring.Targets))
		for _, t := range cfg.Monitoring.Targets {
			targets = append(targets, monitor.Target{AccountID: t.AccountID, Region: t.Region})
		}
		m := monitor.New(orchestrator, monitor.Config{
			Interval: cfg.Monitoring.Interval,
			Targets:  targets,
		})
		go m.Run(ctx)
		logger.Info().
			Dur("interval", cfg.Monitoring.Interval).
			Int("targets", len(targets)).
			Msg("scheduled monitoring started")
	}

	api := server.NewWebAPI(server.Config{
		Addr:            net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Runner:  orchestrator,
			History: reader,
			Review:  reviewer,
			Logger:  logger,
		},
	})

	return api.Start()
}
