package config

import "time"

// Config holds runtime settings for the intake workstation CLI.
//
// Units: intervals are time.Duration values (e.g., 3*time.Second).
type Config struct {
	// ServerURL is the base URL of the remote intake API.
	ServerURL string
	// DatabaseDSN is the sqlite DSN of the local cache.
	DatabaseDSN string
	// OnlineCheckInterval is how often the client probes API reachability.
	OnlineCheckInterval time.Duration
	// SyncInterval is how often a background reconciliation cycle runs.
	SyncInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "clinicsync.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
