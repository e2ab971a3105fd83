// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/services/usersvc"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for threadhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, clerk_webhook_secret, etc.
//   - Environment variables: THREADHUB_MONGO_URI, THREADHUB_CLERK_WEBHOOK_SECRET, etc.
//   - Command-line flags: --mongo_uri, --clerk_webhook_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI (empty starts in degraded mode)"},
	{Name: "mongo_database", Default: "threadhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 0, Desc: "MongoDB min connection pool size (default: 0)"},

	// Webhooks
	{Name: "clerk_webhook_secret", Default: "", Desc: "Identity provider webhook signing secret (whsec_...)"},
	{Name: "webhook_rate_limit", Default: 20, Desc: "Webhook requests per second per client IP"},
	{Name: "webhook_rate_burst", Default: 40, Desc: "Webhook burst per client IP"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs/CIDRs whose X-Forwarded-For is believed"},

	// Page layer
	{Name: "profile_edit_path", Default: usersvc.DefaultProfileEditPath, Desc: "Profile path whose updates request revalidation"},

	// Thread trees and paging
	{Name: "thread_tree_depth", Default: threadsvc.DefaultDepth, Desc: "Default population depth for a thread"},
	{Name: "thread_tree_max_depth", Default: threadsvc.DefaultMaxDepth, Desc: "Maximum population depth a caller may request"},
	{Name: "page_size", Default: paging.DefaultPageSize, Desc: "Default page size"},
	{Name: "max_page_size", Default: paging.MaxPageSize, Desc: "Maximum page size"},

	// Audit logging settings
	{Name: "audit_log_webhook", Default: "all", Desc: "Webhook event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, THREADHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "THREADHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		ClerkWebhookSecret: appValues.String("clerk_webhook_secret"),
		WebhookRateLimit:   appValues.Int("webhook_rate_limit"),
		WebhookRateBurst:   appValues.Int("webhook_rate_burst"),

		ProfileEditPath: appValues.String("profile_edit_path"),

		ThreadTreeDepth:    appValues.Int("thread_tree_depth"),
		ThreadTreeMaxDepth: appValues.Int("thread_tree_max_depth"),
		PageSize:           appValues.Int("page_size"),
		MaxPageSize:        appValues.Int("max_page_size"),

		AuditLogWebhook: appValues.String("audit_log_webhook"),
	}

	proxies, err := ratelimit.ParseProxies(appValues.String("trusted_proxies"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("trusted_proxies: %w", err)
	}
	appCfg.TrustedProxies = proxies

	// Timeouts are read here so ConnectDB already uses any overrides.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// A malformed MongoDB URI aborts startup. An empty one does not: it is
// logged and the service runs in degraded mode. A missing webhook secret is
// never fatal; the webhook endpoint refuses deliveries instead.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.MongoURI == "" {
		logger.Error("MongoDB URI not configured; starting in degraded mode")
	} else if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.ClerkWebhookSecret == "" {
		logger.Warn("clerk_webhook_secret not configured; webhook deliveries will be refused")
	}

	if appCfg.ThreadTreeMaxDepth < 0 || appCfg.ThreadTreeDepth < 0 {
		return fmt.Errorf("thread tree depths must not be negative")
	}
	if appCfg.ThreadTreeMaxDepth > 0 && appCfg.ThreadTreeDepth > appCfg.ThreadTreeMaxDepth {
		return fmt.Errorf("thread_tree_depth (%d) exceeds thread_tree_max_depth (%d)",
			appCfg.ThreadTreeDepth, appCfg.ThreadTreeMaxDepth)
	}

	switch appCfg.AuditLogWebhook {
	case "", "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log_webhook must be one of all, db, log, off (got %q)", appCfg.AuditLogWebhook)
	}

	return nil
}
