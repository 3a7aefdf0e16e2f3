package config

import "sync/atomic"

// current holds the process-wide configuration set by the CLI.
var current atomic.Pointer[Config]

// GetConfig returns the process-wide configuration, or DefaultConfig when
// none has been set. It is safe for concurrent use.
func GetConfig() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

// SetConfig replaces the process-wide configuration. A nil cfg clears it.
func SetConfig(cfg *Config) {
	current.Store(cfg)
}
