package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/flagx"
)

// parseFlags overlays the short command-line flags:
//
//	-a  gRPC bind address             -d  PostgreSQL DSN
//	-s  JWT secret                    -t  access token lifetime, minutes
//	-r  refresh token lifetime, min   -u  S3 user
//	-p  S3 password                   -b  S3 bucket
//	-g  S3 region                     -e  S3 endpoint
//	-k  Redis URI                     -l  open attempts per window
//	-i  invite lifetime, hours        -w  unlock sweep interval, seconds
//	-v  log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-k", "-l", "-i", "-w", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	access := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.RedisURI, "k", config.RedisURI, "Redis URI")
	fs.IntVar(&config.OpenAttemptLimit, "l", config.OpenAttemptLimit, "capsule open attempts per window (0 disables)")

	inviteTTL := fs.Int("i", int(config.InviteTTL.Hours()), "invite validity (hours)")
	sweep := fs.Int("w", int(config.UnlockSweepInterval.Seconds()), "unlock sweep interval (seconds)")

	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Duration flags are whole units; only the ones given replace a value.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		case "i":
			config.InviteTTL = time.Duration(*inviteTTL) * time.Hour
		case "w":
			config.UnlockSweepInterval = time.Duration(*sweep) * time.Second
		}
	})
}
