package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roombook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"

	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultAllowedOrigins = "*"

	DefaultJWTTTL     = 12 * time.Hour
	DefaultBcryptCost = 12

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB
	DefaultBookingLockTTL = 45 * time.Second

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotGranularityMin = 30
	DefaultDayStart           = "09:00"
	DefaultDayEnd             = "18:00"

	DefaultPaginationLimit = 100
)
