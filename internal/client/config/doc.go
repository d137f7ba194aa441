// Package config loads runtime configuration for the capsule CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags -a, -i, -d and -l.
//
// JSON intervals use timex.Duration:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "cache_dir": "/home/me/.timecapsule",
//	  "log_level": "info"
//	}
package config
