package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/flagx"
	"github.com/dmitrijs2005/timecapsule/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "15m" style
// strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	RedisURI                     string         `json:"redis_uri"`
	OpenAttemptLimit             *int           `json:"open_attempt_limit"`
	OpenAttemptWindow            timex.Duration `json:"open_attempt_window"`
	InviteTTL                    timex.Duration `json:"invite_ttl"`
	UnlockSweepInterval          timex.Duration `json:"unlock_sweep_interval"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays the fields present in the file named by -c/-config.
// Absent or zero fields keep their current value. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisURI, c.RedisURI)
	if c.OpenAttemptLimit != nil {
		config.OpenAttemptLimit = *c.OpenAttemptLimit
	}
	setDuration(&config.OpenAttemptWindow, c.OpenAttemptWindow)
	setDuration(&config.InviteTTL, c.InviteTTL)
	setDuration(&config.UnlockSweepInterval, c.UnlockSweepInterval)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
