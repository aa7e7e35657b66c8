package config

import (
	"path/filepath"
	"time"
)

var (
	ConfigFile   string
	Verbose      bool
	GlobalConfig = Defaults()

	// Browser pool configuration
	Concurrency   = GlobalConfig.Concurrency   // Requested browser workers, clamped to [1, NumCPU]
	SettleTimeout = GlobalConfig.SettleTimeout // Flat delay after every page load
	EvalTimeout   = GlobalConfig.EvalTimeout   // Advisory bound on a single script evaluation
	ChromeBin     = GlobalConfig.ChromeBin     // Empty lets rod locate or download Chromium
	NoSandbox     = GlobalConfig.NoSandbox

	// Stylesheet media accepted on top of "", "all" and "screen"
	Media = GlobalConfig.Media

	// Probe worker pool configuration (scan command)
	ProbeWorkers   = GlobalConfig.ProbeWorkers
	ProbeQueueSize = GlobalConfig.ProbeQueueSize

	// Stylesheet fetcher configuration (sheets command)
	FetchRatePerMinute = GlobalConfig.FetchRatePerMinute

	// Reports directory; empty means <config dir>/reports
	OutputDir = GlobalConfig.OutputDir
)

type Config struct {
	Concurrency   int           `mapstructure:"concurrency" yaml:"concurrency"`
	SettleTimeout time.Duration `mapstructure:"settle_timeout" yaml:"settle_timeout"`
	EvalTimeout   time.Duration `mapstructure:"eval_timeout" yaml:"eval_timeout"`
	ChromeBin     string        `mapstructure:"chrome_bin" yaml:"chrome_bin"`
	NoSandbox     bool          `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	Media         []string      `mapstructure:"media" yaml:"media"`

	ProbeWorkers   int `mapstructure:"probe_workers" yaml:"probe_workers"`
	ProbeQueueSize int `mapstructure:"probe_queue_size" yaml:"probe_queue_size"`

	FetchRatePerMinute int    `mapstructure:"fetch_rate_per_minute" yaml:"fetch_rate_per_minute"`
	OutputDir          string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Concurrency:        4,
		SettleTimeout:      0,
		EvalTimeout:        30 * time.Second,
		Media:              []string{},
		ProbeWorkers:       4,
		ProbeQueueSize:     100,
		FetchRatePerMinute: 30,
	}
}

// values flattens cfg into config keys. Durations are kept as strings so the
// generated YAML stays readable.
func values(cfg Config) map[string]interface{} {
	media := cfg.Media
	if media == nil {
		media = []string{}
	}
	return map[string]interface{}{
		"concurrency":           cfg.Concurrency,
		"settle_timeout":        cfg.SettleTimeout.String(),
		"eval_timeout":          cfg.EvalTimeout.String(),
		"chrome_bin":            cfg.ChromeBin,
		"no_sandbox":            cfg.NoSandbox,
		"media":                 media,
		"probe_workers":         cfg.ProbeWorkers,
		"probe_queue_size":      cfg.ProbeQueueSize,
		"fetch_rate_per_minute": cfg.FetchRatePerMinute,
		"output_dir":            cfg.OutputDir,
	}
}

// Apply copies cfg into the package-level variables read by the commands.
func Apply(cfg Config) {
	GlobalConfig = cfg

	Concurrency = cfg.Concurrency
	SettleTimeout = cfg.SettleTimeout
	EvalTimeout = cfg.EvalTimeout
	ChromeBin = cfg.ChromeBin
	NoSandbox = cfg.NoSandbox
	Media = cfg.Media
	ProbeWorkers = cfg.ProbeWorkers
	ProbeQueueSize = cfg.ProbeQueueSize
	FetchRatePerMinute = cfg.FetchRatePerMinute
	OutputDir = cfg.OutputDir
}

// GetReportsPath returns where scan reports are written.
func GetReportsPath() string {
	if OutputDir != "" {
		return OutputDir
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "reports"
	}
	return filepath.Join(configDir, "reports")
}
