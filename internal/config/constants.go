package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for startup checks
const DBPingTimeout = 5 * time.Second

// Outbound HTTP client timeouts
const (
	BackendRequestTimeout  = 30 * time.Second
	PlatformRequestTimeout = 30 * time.Second
	TokenRequestTimeout    = 10 * time.Second
)

// Background job intervals
const LedgerSweepInterval = 1 * time.Hour

// Webhook payload cap
const WebhookMaxBodyBytes = 1 << 20
