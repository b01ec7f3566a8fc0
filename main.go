package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"saas-projection/pkg/config"
)

// app carries state shared by every subcommand.
type app struct {
	verbose    bool
	configPath string
	timeout    time.Duration

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "finmodel",
		Short: "Monthly SaaS cohort, revenue and three-statement projection",
		Long: `finmodel projects cohorts, revenue, COGS, opex and the P&L, cash flow and
balance sheet month by month for one scenario, then reconciles the results.

Inputs come from a database (--dsn), a YAML file (--inputs) or the built-in
example scenario (--example).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			zc := zap.NewProductionConfig()
			if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
				zc.Level = zap.NewAtomicLevelAt(lvl)
			}
			if a.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			a.logger, err = zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (or set FINMODEL_CONFIG_PATH)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Minute, "Overall run timeout")

	root.AddCommand(a.runCmd(), a.validateCmd(), a.monthsCmd(), a.seedCmd(), a.exampleCmd())
	return root
}

// context returns a context cancelled on SIGINT/SIGTERM or after --timeout.
func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
