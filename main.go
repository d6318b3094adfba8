package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"statusflow/app"
	"statusflow/common"
	"statusflow/config"
	"statusflow/event"
	"statusflow/infra/tracing"
	"statusflow/persistence"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string

	engine *app.Engine
	ds     *persistence.DataSourceManager
	tracer io.Closer
)

var rootCmd = &cobra.Command{
	Use:           common.ServiceName,
	Short:         "Status and workflow engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return start(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stop()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml)")
	rootCmd.AddCommand(migrateCmd(), importCmd(), exportCmd(), checkCmd(), transitionsCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}

func start(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := common.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	// DB_DRIVER_TYPE and DB_DRIVER_ARGS take precedence when both are set
	if dbConfig, err := persistence.ParseDatabaseConfigFromEnv(); err == nil {
		cfg.Database = *dbConfig
	}

	if cfg.Tracing.Enabled {
		if tracer, err = tracing.InitGlobalTracer(cfg.Tracing.ServiceName); err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
	}

	// create database (no conflict)
	if cfg.Database.DriverType == persistence.DriverMysql {
		if err := persistence.PrepareMysqlDatabase(cfg.Database.DriverArgs); err != nil {
			return fmt.Errorf("prepare database: %w", err)
		}
	}
	ds = &persistence.DataSourceManager{DatabaseConfig: &cfg.Database}
	if err := ds.Start(); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	engine = app.NewEngine(ds, app.WithWorkflowTTL(cfg.Cache.WorkflowTTL))
	event.RegisterHandler(app.LogEventHandler)
	return nil
}

func stop() {
	if ds != nil {
		ds.Stop()
		ds = nil
	}
	if tracer != nil {
		if err := tracer.Close(); err != nil {
			logrus.Warnf("failed to close tracer: %v", err)
		}
		tracer = nil
	}
}
