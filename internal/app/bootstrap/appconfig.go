// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration
// needed during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Access tokens
	JWTSecret string        // HS256 signing secret (must be strong outside dev)
	JWTExpiry time.Duration // token lifetime
	JWTIssuer string

	// Outbound mail is published to RabbitMQ; a blank URL disables it.
	AMQPURL      string
	MailQueue    string
	MailFrom     string // From email address (e.g., noreply@kanbanhub.dev)
	MailFromName string

	// Used in notification and email copy.
	AppName string
	AppURL  string // e.g., "https://boards.example.com" or "http://localhost:5173"

	// Redis backs the shared rate limiter; a blank address keeps limits in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Register/login attempts allowed per client IP per window.
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Reverse proxies (CIDRs or addresses) whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty trusts none.
	TrustedProxies []string

	NotifyQueueSize int           // buffered background tasks before new ones are dropped
	NotifyRetention time.Duration // read notifications older than this are pruned; 0 disables

	// Origins allowed to open /ws. Empty means same host only; "*" allows any.
	WSAllowedOrigins []string

	// Operation budget overrides; zero fields keep the defaults.
	Timeouts timeouts.Config
}
