package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"fixly/pkg/client"
	"fixly/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration
	MongoOpTimeout    time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	OTPValidityWindow time.Duration
	RejectionTTL      time.Duration
	InboxEntryTTL     time.Duration

	FeedRetryBaseDelay time.Duration
	FeedRetryMaxDelay  time.Duration
	FeedMaxRetries     int

	AvgFieldSpeedKmh float64

	CursorSealKey string

	FunctionsBaseURL string
	FunctionsTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoOpTimeout:    getEnvDuration(EnvMongoOpTimeout, DefaultMongoOpTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		OTPValidityWindow: getEnvDuration(EnvOTPValidityWindow, DefaultOTPValidityWindow),
		RejectionTTL:      getEnvDuration(EnvRejectionTTL, DefaultRejectionTTL),
		InboxEntryTTL:     getEnvDuration(EnvInboxEntryTTL, DefaultInboxEntryTTL),

		FeedRetryBaseDelay: getEnvDuration(EnvFeedRetryBaseDelay, DefaultFeedRetryBaseDelay),
		FeedRetryMaxDelay:  getEnvDuration(EnvFeedRetryMaxDelay, DefaultFeedRetryMaxDelay),
		FeedMaxRetries:     getEnvNum(EnvFeedMaxRetries, DefaultFeedMaxRetries),

		AvgFieldSpeedKmh: getEnvFloat(EnvAvgFieldSpeedKmh, DefaultAvgFieldSpeedKmh),

		CursorSealKey: getEnvStr(EnvCursorSealKey, DefaultCursorSealKey),

		FunctionsBaseURL: getEnvStr(EnvFunctionsBaseURL, ""),
		FunctionsTimeout: getEnvDuration(EnvFunctionsTimeout, DefaultFunctionsTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout":   cfg.MongoConnTimeout,
		"MongoOpTimeout":     cfg.MongoOpTimeout,
		"RateLimitWindow":    cfg.RateLimitWindow,
		"RequestTimeout":     cfg.RequestTimeout,
		"IdempotencyTTL":     cfg.IdempotencyTTL,
		"ReadTimeout":        cfg.ReadTimeout,
		"IdleTimeout":        cfg.IdleTimeout,
		"ShutdownTimeout":    cfg.ShutdownTimeout,
		"OTPValidityWindow":  cfg.OTPValidityWindow,
		"RejectionTTL":       cfg.RejectionTTL,
		"InboxEntryTTL":      cfg.InboxEntryTTL,
		"FeedRetryBaseDelay": cfg.FeedRetryBaseDelay,
		"FeedRetryMaxDelay":  cfg.FeedRetryMaxDelay,
		"FunctionsTimeout":   cfg.FunctionsTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	// WriteTimeout of zero is valid: stream endpoints disable it.
	if cfg.WriteTimeout < 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout cannot be negative, got: %s", cfg.WriteTimeout))
	}

	if cfg.FeedRetryMaxDelay < cfg.FeedRetryBaseDelay {
		errs = append(errs, fmt.Sprintf("FeedRetryMaxDelay (%s) must be >= FeedRetryBaseDelay (%s)", cfg.FeedRetryMaxDelay, cfg.FeedRetryBaseDelay))
	}
	if cfg.FeedMaxRetries <= 0 {
		errs = append(errs, fmt.Sprintf("FeedMaxRetries must be positive, got: %d", cfg.FeedMaxRetries))
	}
	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.AvgFieldSpeedKmh <= 0 {
		errs = append(errs, fmt.Sprintf("AvgFieldSpeedKmh must be positive, got: %f", cfg.AvgFieldSpeedKmh))
	}
	if cfg.CursorSealKey == "" {
		errs = append(errs, "CursorSealKey cannot be empty")
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"otp_validity_window", cfg.OTPValidityWindow,
		"rejection_ttl", cfg.RejectionTTL,
		"inbox_entry_ttl", cfg.InboxEntryTTL,
		"feed_retry_base_delay", cfg.FeedRetryBaseDelay,
		"feed_retry_max_delay", cfg.FeedRetryMaxDelay,
		"feed_max_retries", cfg.FeedMaxRetries,
		"avg_field_speed_kmh", cfg.AvgFieldSpeedKmh,
		"cursor_seal_key_set", cfg.CursorSealKey != DefaultCursorSealKey,
		"functions_base_url_set", cfg.FunctionsBaseURL != "",
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}
