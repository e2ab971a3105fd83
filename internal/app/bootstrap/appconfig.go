// internal/app/bootstrap/appconfig.go
package bootstrap

import "github.com/dalemusser/threadhub/internal/app/system/ratelimit"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (THREADHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging level and CORS; everything specific to threadhub
// lives here.
type AppConfig struct {
	// MongoDB connection configuration. An empty MongoURI starts the service
	// in degraded mode.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity provider webhooks
	ClerkWebhookSecret string // whsec_… signing secret; empty refuses deliveries
	WebhookRateLimit   int    // requests per second per client IP
	WebhookRateBurst   int

	// Peers whose X-Forwarded-For/X-Real-IP are believed for rate limiting
	// and audit. Empty means the connection address is the client.
	TrustedProxies ratelimit.Proxies

	// Page layer integration
	ProfileEditPath string // the only profile path that yields a revalidation signal

	// Thread trees
	ThreadTreeDepth    int
	ThreadTreeMaxDepth int

	// Paging
	PageSize    int
	MaxPageSize int

	// Audit logging: "all", "db", "log" or "off"
	AuditLogWebhook string
}
