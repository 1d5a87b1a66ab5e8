package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults. CLI
// flags are not read here; callers apply them to the returned Config.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("siftcore")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".siftcore"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("dispatcher.local", cfg.Dispatcher.Local)
	v.SetDefault("dispatcher.exit_when_idle", cfg.Dispatcher.ExitWhenIdle)
	v.SetDefault("dispatcher.idle_poll_delay", cfg.Dispatcher.IdlePollDelay)
	v.SetDefault("dispatcher.materialize_lag", cfg.Dispatcher.MaterializeLag)
	v.SetDefault("dispatcher.local_script", cfg.Dispatcher.LocalScript)

	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("store.max_conns", cfg.Store.MaxConns)
	v.SetDefault("store.min_conns", cfg.Store.MinConns)

	v.SetDefault("rate.extra_seconds", cfg.Rate.ExtraSeconds)

	v.SetDefault("stitch.analytics_db_path", cfg.Stitch.AnalyticsDBPath)
	v.SetDefault("stitch.max_concurrency", cfg.Stitch.MaxConcurrency)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

// LoadTransportsTOML reads an alternate TOML transport-descriptor file,
// used when an operator prefers TOML to the primary YAML config (§6).
func LoadTransportsTOML(path string) ([]TransportSpec, error) {
	var doc struct {
		Transports []TransportSpec `toml:"transports"`
	}
	if _, err := tomlDecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("decode transports toml: %w", err)
	}
	return doc.Transports, nil
}
