package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// Config holds the command line driver's settings. Every field can come from
// the environment; flags override it.
type Config struct {
	// Solana RPC
	RPCURL            string
	Commitment        string
	RequestsPerSecond int
	Burst             int
	RequestTimeout    time.Duration

	// Decoding
	Concurrency int
	IDLDir      string
	FetchIDL    bool

	// Observability
	LogLevel    string
	MetricsAddr string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		RPCURL:            rpc.MainNetBeta_RPC,
		Commitment:        string(rpc.CommitmentConfirmed),
		RequestsPerSecond: 10,
		Burst:             5,
		RequestTimeout:    30 * time.Second,
		Concurrency:       4,
		FetchIDL:          true,
		LogLevel:          "info",
	}
}

// Load reads configuration from environment variables and validates it.
// Every problem found is reported in the returned error.
func Load() (*Config, error) {
	def := Default()
	cfg := &Config{}
	var errs []error

	// Solana RPC
	cfg.RPCURL = getEnvOrDefault("SOLANA_RPC_URL", def.RPCURL)
	cfg.Commitment = getEnvOrDefault("SOLANA_COMMITMENT", def.Commitment)

	rps, err := parseInt("RPC_RATE_LIMIT", def.RequestsPerSecond)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.RequestsPerSecond = rps

	burst, err := parseInt("RPC_BURST", def.Burst)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Burst = burst

	timeout, err := parseDuration("RPC_TIMEOUT", def.RequestTimeout.String())
	if err != nil {
		errs = append(errs, err)
	}
	cfg.RequestTimeout = timeout

	// Decoding
	concurrency, err := parseInt("DECODE_CONCURRENCY", def.Concurrency)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Concurrency = concurrency
	cfg.IDLDir = os.Getenv("IDL_DIR")

	fetchIDL, err := parseBool("FETCH_IDL", def.FetchIDL)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.FetchIDL = fetchIDL

	// Observability
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", def.LogLevel)
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.RPCURL == "" {
		errs = append(errs, fmt.Errorf("RPCURL is required"))
	}

	switch rpc.CommitmentType(c.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		errs = append(errs, fmt.Errorf("Commitment %q must be processed, confirmed or finalized", c.Commitment))
	}

	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("RequestsPerSecond cannot be negative"))
	}

	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		errs = append(errs, fmt.Errorf("Burst must be at least 1 when rate limiting"))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RequestTimeout must be positive"))
	}

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("Concurrency must be at least 1"))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LogLevel: %w", err))
	}

	if c.IDLDir != "" {
		info, err := os.Stat(c.IDLDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("IDLDir: %w", err))
		} else if !info.IsDir() {
			errs = append(errs, fmt.Errorf("IDLDir %q is not a directory", c.IDLDir))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
