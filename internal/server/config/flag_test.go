package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:8081", "-g", "127.0.0.1:9090", "-d", "db",
			"-t", "30", "-m", "3", "-w", "10", "-r", "redis:6379", "-q", "amqp://q",
			"-u", "user", "-p", "password", "-b", "bucket", "-s", "us-west-1", "-e", "http://endpoint",
			"-l", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP:    "127.0.0.1:8081",
				EndpointAddrGRPC:    "127.0.0.1:9090",
				DatabaseDSN:         "db",
				VerificationCodeTTL: 30 * time.Minute,
				MaxVerifyAttempts:   3,
				VerifyAttemptWindow: 10 * time.Minute,
				RedisAddr:           "redis:6379",
				RabbitMQURL:         "amqp://q",
				S3RootUser:          "user",
				S3RootPassword:      "password",
				S3Bucket:            "bucket",
				S3Region:            "us-west-1",
				S3BaseEndpoint:      "http://endpoint",
				LogLevel:            "debug",
			}},
		{name: "foreign flags ignored", args: []string{"cmd", "-config", "x.json", "-t", "5"},
			expected: &Config{VerificationCodeTTL: 5 * time.Minute}},
		{name: "non-numeric ttl", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
