package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":    "www.example:8080",
		"endpoint_addr_grpc":    "www.example:9000",
		"database_dsn":          "postgres://db",
		"verification_code_ttl": "2h",
		"max_verify_attempts":   0,
		"verify_attempt_window": 60000000000,
		"redis_addr":            "redis:6379",
		"rabbitmq_url":          "amqp://rabbit",
		"s3_root_user":          "user",
		"s3_root_password":      "password",
		"s3_bucket":             "bucket",
		"s3_region":             "region",
		"s3_base_endpoint":      "base_endpoint",
		"log_level":             "warn",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{MaxVerifyAttempts: 5}
		parseJson(cfg)

		assert.Equal(t, "www.example:8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, 2*time.Hour, cfg.VerificationCodeTTL)
		assert.Equal(t, 0, cfg.MaxVerifyAttempts)
		assert.Equal(t, time.Minute, cfg.VerifyAttemptWindow)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "amqp://rabbit", cfg.RabbitMQURL)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("partial json keeps other fields", func(t *testing.T) {
		p := writeTempJSON(t, dir, "partial.json", map[string]any{"redis_addr": "r:1"})
		os.Args = []string{"testbin", "-c", p}

		cfg := &Config{EndpointAddrHTTP: ":1", VerificationCodeTTL: time.Hour}
		parseJson(cfg)

		assert.Equal(t, "r:1", cfg.RedisAddr)
		assert.Equal(t, ":1", cfg.EndpointAddrHTTP)
		assert.Equal(t, time.Hour, cfg.VerificationCodeTTL)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrGRPC:    "defaults:1234",
			DatabaseDSN:         "dsn",
			VerificationCodeTTL: 2 * time.Minute,
			S3Bucket:            "s3bucket",
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "dsn", cfg.DatabaseDSN)
		assert.Equal(t, 2*time.Minute, cfg.VerificationCodeTTL)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
