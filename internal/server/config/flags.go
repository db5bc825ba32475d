package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/booktag/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN (empty = in-memory store)
//	-t int      verification code validity, minutes
//	-m int      max verification attempts per window (0 = unlimited)
//	-w int      verification attempt window, minutes
//	-r string   Redis address for the attempt limiter
//	-q string   RabbitMQ URL for verification events
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-s string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Arguments are filtered with flagx.FilterArgs first so that -c/-config and
// flags owned by other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-t", "-m", "-w", "-r", "-q", "-u", "-p", "-b", "-s", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run HTTP server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	verificationCodeTTL := fs.Int("t", int(config.VerificationCodeTTL.Minutes()), "verification_code_ttl (in minutes)")
	fs.IntVar(&config.MaxVerifyAttempts, "m", config.MaxVerifyAttempts, "max verification attempts per window")
	verifyAttemptWindow := fs.Int("w", int(config.VerifyAttemptWindow.Minutes()), "verify_attempt_window (in minutes)")

	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "Redis address")
	fs.StringVar(&config.RabbitMQURL, "q", config.RabbitMQURL, "RabbitMQ URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "s", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.VerificationCodeTTL = time.Duration(*verificationCodeTTL) * time.Minute
	config.VerifyAttemptWindow = time.Duration(*verifyAttemptWindow) * time.Minute
}
