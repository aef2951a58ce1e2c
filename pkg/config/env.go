package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"
	EnvMongoOpTimeout    = "MONGO_OP_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvOTPValidityWindow = "OTP_VALIDITY_WINDOW"
	EnvRejectionTTL      = "REJECTION_TTL"
	EnvInboxEntryTTL     = "INBOX_ENTRY_TTL"

	EnvFeedRetryBaseDelay = "FEED_RETRY_BASE_DELAY"
	EnvFeedRetryMaxDelay  = "FEED_RETRY_MAX_DELAY"
	EnvFeedMaxRetries     = "FEED_MAX_RETRIES"

	EnvAvgFieldSpeedKmh = "AVG_FIELD_SPEED_KMH"

	EnvCursorSealKey = "CURSOR_SEAL_KEY"

	EnvFunctionsBaseURL = "FUNCTIONS_BASE_URL"
	EnvFunctionsTimeout = "FUNCTIONS_TIMEOUT"
)
