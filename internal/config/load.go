// Package config loads uibench settings from a YAML file, .env and UIBENCH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"uibench/internal/benchmark"
)

// EnvPrefix prefixes every environment override, e.g. UIBENCH_OUT_DIR.
const EnvPrefix = "UIBENCH"

// Timeouts bounds every blocking wait of a run.
type Timeouts struct {
	ServerReady time.Duration
	Navigation  time.Duration
	APIReady    time.Duration
	StopGrace   time.Duration
}

// Retry is the bounded retry policy applied to each test.
type Retry struct {
	MaxAttempts int
	Pause       time.Duration
}

// Browser configures the headless browser.
type Browser struct {
	Headless  bool
	NoSandbox bool
	ExecPath  string
}

// Config is the resolved configuration of a run.
type Config struct {
	OutDir         string
	Iterations     int
	Targets        []benchmark.Target
	Timeouts       Timeouts
	PollInterval   time.Duration
	Retry          Retry
	Cooldown       time.Duration
	RenderSelector string
	Bulk           benchmark.BulkParams
	Churn          benchmark.ChurnParams
	Browser        Browser
	MetricsAddr    string
	Verbose        bool
	LogFile        string
}

// DefaultTargets are the three stacks laid out next to the uibench checkout.
func DefaultTargets() []map[string]any {
	return []map[string]any{
		{
			"name":  "react",
			"dir":   "../react-bench",
			"port":  4173,
			"build": []string{"npm", "run", "build"},
			"start": []string{"npm", "run", "preview", "--", "--port", "4173", "--strictPort"},
		},
		{
			"name":  "vue",
			"dir":   "../vue-bench",
			"port":  4173,
			"build": []string{"npm", "run", "build"},
			"start": []string{"npm", "run", "preview", "--", "--port", "4173", "--strictPort"},
		},
		{
			"name":  "angular",
			"dir":   "../angular-bench",
			"port":  4200,
			"build": []string{"npm", "run", "build"},
			"start": []string{"npm", "start", "--", "--configuration=production", "--port", "4200"},
		},
	}
}

// SetDefaults registers every default value on viper.
func SetDefaults() {
	viper.SetDefault("out_dir", "out")
	viper.SetDefault("iterations", 5)
	viper.SetDefault("targets", DefaultTargets())
	viper.SetDefault("timeouts.server_ready", 180*time.Second)
	viper.SetDefault("timeouts.navigation", 120*time.Second)
	viper.SetDefault("timeouts.api_ready", 60*time.Second)
	viper.SetDefault("timeouts.stop_grace", 5*time.Second)
	viper.SetDefault("poll_interval", 500*time.Millisecond)
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.pause", 500*time.Millisecond)
	viper.SetDefault("cooldown", 300*time.Millisecond)
	viper.SetDefault("render.selector", "table tbody")
	viper.SetDefault("bulk.rows", 10000)
	viper.SetDefault("bulk.updates", 1000)
	viper.SetDefault("churn.components", 1000)
	viper.SetDefault("churn.cycles", 100)
	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.no_sandbox", true)
	viper.SetDefault("browser.exec_path", "")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
}

// Load initializes the configuration from file and environment variables.
// A missing default config file is not an error; a missing explicit one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("uibench")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// Get builds a Config from the values currently held by viper.
func Get() (*Config, error) {
	var targets []benchmark.Target
	if err := viper.UnmarshalKey("targets", &targets); err != nil {
		return nil, fmt.Errorf("failed to decode targets: %w", err)
	}

	return &Config{
		OutDir:     viper.GetString("out_dir"),
		Iterations: viper.GetInt("iterations"),
		Targets:    targets,
		Timeouts: Timeouts{
			ServerReady: viper.GetDuration("timeouts.server_ready"),
			Navigation:  viper.GetDuration("timeouts.navigation"),
			APIReady:    viper.GetDuration("timeouts.api_ready"),
			StopGrace:   viper.GetDuration("timeouts.stop_grace"),
		},
		PollInterval: viper.GetDuration("poll_interval"),
		Retry: Retry{
			MaxAttempts: viper.GetInt("retry.max_attempts"),
			Pause:       viper.GetDuration("retry.pause"),
		},
		Cooldown:       viper.GetDuration("cooldown"),
		RenderSelector: viper.GetString("render.selector"),
		Bulk: benchmark.BulkParams{
			RowsCount:    viper.GetInt("bulk.rows"),
			UpdatesCount: viper.GetInt("bulk.updates"),
		},
		Churn: benchmark.ChurnParams{
			Components: viper.GetInt("churn.components"),
			Cycles:     viper.GetInt("churn.cycles"),
		},
		Browser: Browser{
			Headless:  viper.GetBool("browser.headless"),
			NoSandbox: viper.GetBool("browser.no_sandbox"),
			ExecPath:  viper.GetString("browser.exec_path"),
		},
		MetricsAddr: viper.GetString("metrics_addr"),
		Verbose:     viper.GetBool("verbose"),
		LogFile:     viper.GetString("log_file"),
	}, nil
}
