package config

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for siftcore.
type Config struct {
	Dispatcher DispatcherConfig `mapstructure:"dispatcher" yaml:"dispatcher"`
	Store      StoreConfig      `mapstructure:"store"      yaml:"store"`
	Transports []TransportSpec  `mapstructure:"transports" yaml:"transports"`
	Rate       RateConfig       `mapstructure:"rate"       yaml:"rate"`
	Stitch     StitchConfig     `mapstructure:"stitch"     yaml:"stitch"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// DispatcherConfig controls the control loop.
type DispatcherConfig struct {
	Local          bool          `mapstructure:"local"           yaml:"local"`
	ExitWhenIdle   bool          `mapstructure:"exit_when_idle"  yaml:"exit_when_idle"`
	LocalScript    string        `mapstructure:"local_script"    yaml:"local_script"`
	IdlePollDelay  time.Duration `mapstructure:"idle_poll_delay" yaml:"idle_poll_delay"`
	MaterializeLag time.Duration `mapstructure:"materialize_lag" yaml:"materialize_lag"`
}

// StoreConfig controls the relational store connection.
type StoreConfig struct {
	DSN      string `mapstructure:"dsn"       yaml:"dsn"`
	MaxConns int32  `mapstructure:"max_conns" yaml:"max_conns"`
	MinConns int32  `mapstructure:"min_conns" yaml:"min_conns"`
}

// TransportSpec describes one configured fetcher transport. Only the
// fields relevant to Type are populated.
type TransportSpec struct {
	Active bool   `mapstructure:"active" yaml:"active"`
	Type   string `mapstructure:"type"   yaml:"type"` // popen, sudo, ssh
	Script string `mapstructure:"script" yaml:"script"`
	User   string `mapstructure:"user"   yaml:"user"`
	Group  string `mapstructure:"group"  yaml:"group"`
	Host   string `mapstructure:"host"   yaml:"host"`
}

// RateConfig controls the aggregate dispatch pacing.
type RateConfig struct {
	// ExtraSeconds is the "+1" term in 60/N + 1.
	ExtraSeconds float64 `mapstructure:"extra_seconds" yaml:"extra_seconds"`
}

// StitchConfig controls the offline stitching engine.
type StitchConfig struct {
	AnalyticsDBPath string `mapstructure:"analytics_db_path" yaml:"analytics_db_path"`
	MaxConcurrency  int    `mapstructure:"max_concurrency"   yaml:"max_concurrency"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus text-exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			IdlePollDelay:  1 * time.Second,
			MaterializeLag: 10 * time.Minute,
		},
		Store: StoreConfig{
			MaxConns: 10,
			MinConns: 1,
		},
		Rate: RateConfig{
			ExtraSeconds: 1,
		},
		Stitch: StitchConfig{
			AnalyticsDBPath: "time_series.db",
			MaxConcurrency:  4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
