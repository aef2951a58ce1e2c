package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "fixly"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultMongoOpTimeout    = 5 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout = 15 * time.Second
	// WriteTimeout stays disabled: feed stream responses hold the
	// connection open until the client disconnects.
	DefaultWriteTimeout    = 0 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Completion codes are valid for 30 minutes; a stale code is rejected
	// with OTP_EXPIRED so the caller regenerates instead of retrying.
	DefaultOTPValidityWindow = 30 * time.Minute

	DefaultRejectionTTL  = 6 * time.Hour
	DefaultInboxEntryTTL = 2 * time.Hour

	DefaultFeedRetryBaseDelay = 500 * time.Millisecond
	DefaultFeedRetryMaxDelay  = 30 * time.Second
	DefaultFeedMaxRetries     = 6

	// Average field speed used for waypoint duration estimates. Urban
	// two-wheeler traffic, not a routing-engine figure.
	DefaultAvgFieldSpeedKmh = 28.0

	DefaultFunctionsTimeout = 10 * time.Second

	DefaultPaginationLimit = 50

	// Dev-only fallback; production deployments must set CURSOR_SEAL_KEY.
	DefaultCursorSealKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="
)
