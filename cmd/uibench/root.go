package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"uibench/internal/config"
	"uibench/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"out":          "out_dir",
	"verbose":      "verbose",
	"log-file":     "log_file",
	"metrics-addr": "metrics_addr",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uibench",
	Short: "Benchmark UI framework implementations in a headless browser",
	Long: `uibench builds and serves each UI implementation, drives its benchmark
page in headless Chrome and aggregates repeated runs into CSV, Markdown and
chart reports.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./uibench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("out", "", "Output directory (overrides out_dir)")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112")
}

// loadConfig binds the flags, reads file and environment, validates the
// result and installs the default logger. release closes the log file.
func loadConfig(cmd *cobra.Command) (cfg *config.Config, logger *slog.Logger, release func(), err error) {
	if err := bindFlags(cmd.Flags()); err != nil {
		return nil, nil, nil, err
	}
	if err := config.Load(cfgFile); err != nil {
		return nil, nil, nil, err
	}
	cfg, err = config.Get()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger, closeLog := telemetry.InitLogger(cfg.Verbose, cfg.LogFile)
	release = func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}
	return cfg, logger, release, nil
}

func bindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// signalContext ends on SIGINT or SIGTERM so servers and browsers are released.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(1)
	}
}
