// Package config assembles the REPL client settings. Sources, from lowest to
// highest precedence: built-in defaults, TIMECAPSULE_* environment variables,
// the JSON file named by -c/-config, command-line flags.
package config

import (
	"strings"
	"time"
)

const (
	defaultServer        = "127.0.0.1:50051"
	defaultCheckInterval = 3 * time.Second
	defaultCacheDir      = ".timecapsule"
	defaultLogLevel      = "warn"
)

// Config holds runtime settings for the capsule CLI.
//
// OnlineCheckInterval is how often the client probes the authority while a
// session is open. CacheDir holds the local sqlite cache of capsule listings.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	CacheDir            string
	LogLevel            string
}

func (c *Config) LoadDefaults() {
	*c = Config{
		ServerEndpointAddr:  defaultServer,
		OnlineCheckInterval: defaultCheckInterval,
		CacheDir:            defaultCacheDir,
		LogLevel:            defaultLogLevel,
	}
}

// normalize repairs values the layers may have left unusable.
func (c *Config) normalize() {
	if c.OnlineCheckInterval <= 0 {
		c.OnlineCheckInterval = defaultCheckInterval
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// LoadConfig layers every source over the defaults. Malformed input panics.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	cfg.normalize()
	return cfg
}
