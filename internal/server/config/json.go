package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/booktag/internal/flagx"
	"github.com/dmitrijs2005/booktag/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Duration fields use timex.Duration, which accepts both string values such
// as "1h" and integer nanoseconds.
//
// Pointer fields distinguish "absent" from "zero", so a JSON file only
// overrides the keys it actually contains.
type JsonConfig struct {
	EndpointAddrHTTP    *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN         *string         `json:"database_dsn"`
	VerificationCodeTTL *timex.Duration `json:"verification_code_ttl"`
	MaxVerifyAttempts   *int            `json:"max_verify_attempts"`
	VerifyAttemptWindow *timex.Duration `json:"verify_attempt_window"`
	RedisAddr           *string         `json:"redis_addr"`
	RabbitMQURL         *string         `json:"rabbitmq_url"`
	S3RootUser          *string         `json:"s3_root_user"`
	S3RootPassword      *string         `json:"s3_root_password"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.VerificationCodeTTL != nil {
		config.VerificationCodeTTL = c.VerificationCodeTTL.Duration
	}
	if c.MaxVerifyAttempts != nil {
		config.MaxVerifyAttempts = *c.MaxVerifyAttempts
	}
	if c.VerifyAttemptWindow != nil {
		config.VerifyAttemptWindow = c.VerifyAttemptWindow.Duration
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RabbitMQURL, c.RabbitMQURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
