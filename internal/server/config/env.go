package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads envFile into the process environment when it exists and then
// overlays every variable that is set. Variables already present in the
// environment win over the file.
//
//	GRPC_ADDR, DATABASE_DSN, JWT_SECRET, ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	REDIS_URI, OPEN_ATTEMPT_LIMIT, OPEN_ATTEMPT_WINDOW, INVITE_TTL,
//	UNLOCK_SWEEP_INTERVAL, LOG_LEVEL
//
// Durations use Go syntax ("15m", "168h").
func parseEnv(config *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("JWT_SECRET", &config.SecretKey)
	envDuration("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	envDuration("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("REDIS_URI", &config.RedisURI)
	envInt("OPEN_ATTEMPT_LIMIT", &config.OpenAttemptLimit)
	envDuration("OPEN_ATTEMPT_WINDOW", &config.OpenAttemptWindow)
	envDuration("INVITE_TTL", &config.InviteTTL)
	envDuration("UNLOCK_SWEEP_INTERVAL", &config.UnlockSweepInterval)
	envString("LOG_LEVEL", &config.LogLevel)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = n
}

func envDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}
