package config

import "fmt"

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Dispatcher.IdlePollDelay <= 0 {
		return fmt.Errorf("dispatcher.idle_poll_delay must be > 0")
	}
	if cfg.Dispatcher.MaterializeLag < 0 {
		return fmt.Errorf("dispatcher.materialize_lag must be >= 0")
	}
	if cfg.Dispatcher.Local && cfg.Dispatcher.LocalScript == "" {
		return fmt.Errorf("dispatcher.local_script is required when dispatcher.local is true")
	}

	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn must not be empty")
	}
	if cfg.Store.MaxConns < 1 {
		return fmt.Errorf("store.max_conns must be >= 1, got %d", cfg.Store.MaxConns)
	}
	if cfg.Store.MinConns < 0 {
		return fmt.Errorf("store.min_conns must be >= 0, got %d", cfg.Store.MinConns)
	}
	if cfg.Store.MinConns > cfg.Store.MaxConns {
		return fmt.Errorf("store.min_conns (%d) must be <= store.max_conns (%d)", cfg.Store.MinConns, cfg.Store.MaxConns)
	}

	if !cfg.Dispatcher.Local {
		if len(cfg.Transports) == 0 {
			return fmt.Errorf("at least one transport must be configured when dispatcher.local is false")
		}
		activeCount := 0
		for i, t := range cfg.Transports {
			if !t.Active {
				continue
			}
			activeCount++
			if err := validateTransport(i, t); err != nil {
				return err
			}
		}
		if activeCount == 0 {
			return fmt.Errorf("at least one transport must be active")
		}
	}

	if cfg.Rate.ExtraSeconds < 0 {
		return fmt.Errorf("rate.extra_seconds must be >= 0, got %v", cfg.Rate.ExtraSeconds)
	}

	if cfg.Stitch.MaxConcurrency < 1 {
		return fmt.Errorf("stitch.max_concurrency must be >= 1, got %d", cfg.Stitch.MaxConcurrency)
	}
	if cfg.Stitch.AnalyticsDBPath == "" {
		return fmt.Errorf("stitch.analytics_db_path must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
		if cfg.Metrics.Path == "" {
			return fmt.Errorf("metrics.path must not be empty when metrics.enabled is true")
		}
	}

	return nil
}

// validateTransport checks the fields required for a TransportSpec's Type.
func validateTransport(i int, t TransportSpec) error {
	switch t.Type {
	case "popen":
		if t.Script == "" {
			return fmt.Errorf("transports[%d]: popen transport requires script", i)
		}
	case "sudo":
		if t.Script == "" {
			return fmt.Errorf("transports[%d]: sudo transport requires script", i)
		}
		if t.User == "" {
			return fmt.Errorf("transports[%d]: sudo transport requires user", i)
		}
	case "ssh":
		if t.User == "" {
			return fmt.Errorf("transports[%d]: ssh transport requires user", i)
		}
		if t.Host == "" {
			return fmt.Errorf("transports[%d]: ssh transport requires host", i)
		}
	default:
		return fmt.Errorf("transports[%d]: type must be popen/sudo/ssh, got %q", i, t.Type)
	}
	return nil
}
