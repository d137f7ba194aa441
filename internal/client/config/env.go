package config

import (
	"fmt"
	"os"
	"time"
)

// parseEnv overlays cfg with the variables that are set and non-empty:
//
//	TIMECAPSULE_SERVER          host:port of the authority
//	TIMECAPSULE_CHECK_INTERVAL  Go duration, e.g. "5s"
//	TIMECAPSULE_CACHE_DIR
//	TIMECAPSULE_LOG_LEVEL
func parseEnv(cfg *Config) {
	if v := os.Getenv("TIMECAPSULE_SERVER"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv("TIMECAPSULE_CHECK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("TIMECAPSULE_CHECK_INTERVAL: %w", err))
		}
		cfg.OnlineCheckInterval = d
	}
	if v := os.Getenv("TIMECAPSULE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("TIMECAPSULE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
