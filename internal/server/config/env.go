package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded when present; variables already set in the process win.
var envFile = ".env"

// parseEnv overlays BOOKTAG_* environment variables onto config.
// Durations accept time.ParseDuration syntax ("90m", "1h").
// A malformed value panics, like malformed JSON or flags.
func parseEnv(config *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	lookupString("BOOKTAG_HTTP_ADDR", &config.EndpointAddrHTTP)
	lookupString("BOOKTAG_GRPC_ADDR", &config.EndpointAddrGRPC)
	lookupString("BOOKTAG_DATABASE_DSN", &config.DatabaseDSN)
	lookupDuration("BOOKTAG_VERIFICATION_CODE_TTL", &config.VerificationCodeTTL)
	lookupInt("BOOKTAG_MAX_VERIFY_ATTEMPTS", &config.MaxVerifyAttempts)
	lookupDuration("BOOKTAG_VERIFY_ATTEMPT_WINDOW", &config.VerifyAttemptWindow)
	lookupString("BOOKTAG_REDIS_ADDR", &config.RedisAddr)
	lookupString("BOOKTAG_RABBITMQ_URL", &config.RabbitMQURL)
	lookupString("BOOKTAG_S3_ROOT_USER", &config.S3RootUser)
	lookupString("BOOKTAG_S3_ROOT_PASSWORD", &config.S3RootPassword)
	lookupString("BOOKTAG_S3_BUCKET", &config.S3Bucket)
	lookupString("BOOKTAG_S3_REGION", &config.S3Region)
	lookupString("BOOKTAG_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	lookupString("BOOKTAG_LOG_LEVEL", &config.LogLevel)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func lookupInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func lookupDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
