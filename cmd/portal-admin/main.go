package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/noah-isme/student-portal-api/internal/bootstrap"
	"github.com/noah-isme/student-portal-api/pkg/config"
	"github.com/noah-isme/student-portal-api/pkg/database"
	"github.com/noah-isme/student-portal-api/pkg/logger"
)

const programName = "portal-admin"

var globalFlags = struct {
	debug bool
}{}

// runtime carries what every subcommand needs.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
}

func commonRun() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globalFlags.debug {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Format = "console"

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if _, err := maxprocs.Set(maxprocs.Logger(logr.Sugar().Debugf)); err != nil {
		logr.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	db, err := database.Acquire(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &runtime{cfg: cfg, logger: logr.With(zap.String("component", programName)), db: db}, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
	if err := database.Release(); err != nil {
		r.logger.Warn("failed to close database", zap.Error(err))
	}
}

// services builds the service graph without Redis; the CLI is short lived.
func (r *runtime) services(ctx context.Context) (*bootstrap.Dependencies, error) {
	return bootstrap.Build(ctx, r.cfg, r.db, nil, r.logger)
}

// withRuntime adapts a subcommand body to cobra, owning setup and teardown.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := commonRun()
		if err != nil {
			return err
		}
		defer rt.close()
		return fn(cmd, args, rt)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Operator tasks for the student portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		migrateCommand(),
		seedRolesCommand(),
		createAdminCommand(),
		importCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
