// Package config handles configuration for the booktag server,
// including defaults, environment (.env) overlay, JSON overlay, and
// command-line flags.
package config

import "time"

// Config holds runtime settings for the booktag server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the JSON HTTP API and /metrics.
//   - EndpointAddrGRPC: bind address for the gRPC health service.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - VerificationCodeTTL: lifetime of an issued verification code.
//   - MaxVerifyAttempts / VerifyAttemptWindow: per-user submission limit; 0 disables it.
//   - RedisAddr: Redis used by the attempt limiter. Empty disables the limiter.
//   - RabbitMQURL: broker for verification-code-issued events. Empty logs events instead.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: print manifest storage.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP    string
	EndpointAddrGRPC    string
	DatabaseDSN         string
	VerificationCodeTTL time.Duration
	MaxVerifyAttempts   int
	VerifyAttemptWindow time.Duration
	RedisAddr           string
	RabbitMQURL         string
	S3RootUser          string
	S3RootPassword      string
	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
	LogLevel            string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the S3 credentials are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.VerificationCodeTTL = 1 * time.Hour
	c.MaxVerifyAttempts = 5
	c.VerifyAttemptWindow = 15 * time.Minute
	c.RedisAddr = ""
	c.RabbitMQURL = ""
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "booktag"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment, an optional JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
