package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"

	"github.com/spf13/cobra"
)

var (
	flagDB       string
	flagBackend  string
	flagLogLevel string
	flagUser     int64
)

var (
	appConfig *config.Config
	logger    *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "budget",
	Short:         "Personal finance budget service",
	Long:          "Track incomes and expenses in several currencies, plan monthly budgets and run recurring transactions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
			if cmd.Flags().Changed("db") {
				c.SQLiteDBPath = flagDB
			}
			if cmd.Flags().Changed("backend") {
				c.DataBackend = flagBackend
			}
			if cmd.Flags().Changed("log-level") {
				c.LogLevel = flagLogLevel
			}
		})
		if err != nil {
			return err
		}
		appConfig = cfg
		logger = cli.SetupLogger(cfg.LogLevel, log.ComponentCLI)
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Data backend: sqlite or memory (overrides DATA_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// addUserFlag registers the required --user flag on commands scoped to one
// user.
func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&flagUser, "user", "u", 0, "User ID")
	_ = cmd.MarkFlagRequired("user")
}

func requireUser() (int64, error) {
	if flagUser <= 0 {
		return 0, errors.New("--user must be a positive ID")
	}
	return flagUser, nil
}

// withServices opens the backend, runs fn and releases the backend.
func withServices(ctx context.Context, fn func(context.Context, *services.Services) error) (err error) {
	res, err := cli.InitBackend(ctx, logger, appConfig)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close backend: %w", cerr))
		}
	}()
	return fn(ctx, services.New(res.Store, res.Publisher, nil))
}
