// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/ratelimit"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// defaultJWTSecret is only acceptable in dev; ValidateConfig rejects it elsewhere.
const defaultJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for KanbanHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: KANBANHUB_MONGO_URI, KANBANHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kanbanhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Access tokens
	{Name: "jwt_secret", Default: defaultJWTSecret, Desc: "Access token signing secret (must be strong in production)"},
	{Name: "jwt_expiry", Default: "168h", Desc: "Access token lifetime (e.g., 24h, 168h)"},
	{Name: "jwt_issuer", Default: "kanbanhub", Desc: "Access token issuer claim"},

	// Email queue
	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL for outbound mail (blank disables email)"},
	{Name: "mail_queue", Default: "mail.outbound", Desc: "Queue outbound mail is published to"},
	{Name: "mail_from", Default: "noreply@kanbanhub.dev", Desc: "From email address"},
	{Name: "mail_from_name", Default: "KanbanHub", Desc: "From display name"},

	{Name: "app_name", Default: "KanbanHub", Desc: "Product name used in notifications and email"},
	{Name: "app_url", Default: "http://localhost:5173", Desc: "Frontend URL used in email links"},

	// Rate limiting
	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limiting (blank keeps limits in memory)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "auth_rate_limit", Default: 10, Desc: "Register/login attempts allowed per client IP per window"},
	{Name: "auth_rate_window", Default: "15m", Desc: "Rate limit window for register/login"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy CIDRs or IPs whose forwarding headers identify the client (blank trusts none)"},

	{Name: "notify_queue_size", Default: 256, Desc: "Background notification tasks buffered before dropping"},
	{Name: "notify_retention", Default: "720h", Desc: "Age after which read notifications are pruned (0 keeps them forever)"},
	{Name: "timeout_ping", Default: "", Desc: "Health and startup ping budget (blank keeps 2s)"},
	{Name: "timeout_short", Default: "", Desc: "Single-document operation budget (blank keeps 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Listing budget (blank keeps 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Cascade delete and maintenance budget (blank keeps 30s)"},
	{Name: "ws_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to open /ws ('*' for any, blank for same host)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, KANBANHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KANBANHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", 7*24*time.Hour),
		JWTIssuer: appValues.String("jwt_issuer"),

		AMQPURL:      appValues.String("amqp_url"),
		MailQueue:    appValues.String("mail_queue"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		AppName: appValues.String("app_name"),
		AppURL:  appValues.String("app_url"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		AuthRateLimit:  appValues.Int("auth_rate_limit"),
		AuthRateWindow: appValues.Duration("auth_rate_window", 15*time.Minute),
		TrustedProxies: splitList(appValues.String("trusted_proxies")),

		NotifyQueueSize:  appValues.Int("notify_queue_size"),
		NotifyRetention:  appValues.Duration("notify_retention", 30*24*time.Hour),
		WSAllowedOrigins: splitList(appValues.String("ws_allowed_origins")),

		Timeouts: timeouts.Config{
			Ping:   appValues.Duration("timeout_ping", 0),
			Short:  appValues.Duration("timeout_short", 0),
			Medium: appValues.Duration("timeout_medium", 0),
			Long:   appValues.Duration("timeout_long", 0),
		},
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked before any connection is attempted, and
// outside dev the token secret must be long and not the built-in default.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.JWTExpiry <= 0 {
		return errors.New("jwt_expiry must be positive")
	}
	if appCfg.NotifyRetention < 0 {
		return errors.New("notify_retention must not be negative")
	}
	if appCfg.AuthRateLimit < 1 || appCfg.AuthRateWindow <= 0 {
		return errors.New("auth_rate_limit and auth_rate_window must be positive")
	}
	if _, err := ratelimit.ParseProxies(appCfg.TrustedProxies); err != nil {
		return err
	}

	if coreCfg.Env != "dev" {
		if appCfg.JWTSecret == defaultJWTSecret {
			return errors.New("jwt_secret must be set outside dev")
		}
		if len(appCfg.JWTSecret) < auth.MinSecretLength {
			return fmt.Errorf("jwt_secret must be at least %d characters", auth.MinSecretLength)
		}
	}

	return nil
}
