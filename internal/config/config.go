package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JSH-Team/domprobe/internal/utils/logger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = "domprobe"
	ConfigFileName = "config.yaml"
	EnvPrefix      = "DOMPROBE"
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"concurrency":    "concurrency",
	"settle-timeout": "settle_timeout",
	"eval-timeout":   "eval_timeout",
	"chrome-bin":     "chrome_bin",
	"no-sandbox":     "no_sandbox",
	"media":          "media",
	"workers":        "probe_workers",
	"queue-size":     "probe_queue_size",
	"rate":           "fetch_rate_per_minute",
	"output":         "output_dir",
}

func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigDirName), nil
}

// LoadConfig resolves the configuration and applies it to the package
// variables. Precedence is flag, then DOMPROBE_* environment, then the config
// file, then defaults. An empty path uses the file in the user config dir and
// creates it with defaults on first run.
func LoadConfig(path string, flags *pflag.FlagSet) error {
	if path == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return fmt.Errorf("failed to get config dir: %w", err)
		}
		path, err = ensureConfigFile(configDir)
		if err != nil {
			return err
		}
	}

	v := viper.New()
	for key, value := range values(Defaults()) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	ConfigFile = path
	Apply(cfg)
	logger.Debug("Loaded config from %s", path)
	return nil
}

// ensureConfigFile creates dir/config.yaml with the defaults when it does not
// exist yet and returns its path.
func ensureConfigFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	configFile := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		out, err := yaml.Marshal(values(Defaults()))
		if err != nil {
			return "", fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(configFile, out, 0644); err != nil {
			return "", fmt.Errorf("failed to write default config: %w", err)
		}
		logger.Info("Created default config at %s", configFile)
	}
	return configFile, nil
}
