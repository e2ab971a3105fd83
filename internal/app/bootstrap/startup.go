// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	t := timeouts.Current()
	logger.Info("threadhub starting",
		zap.Bool("degraded", deps.Degraded()),
		zap.String("database", appCfg.MongoDatabase),
		zap.Bool("webhook_secret_set", appCfg.ClerkWebhookSecret != ""),
		zap.Duration("timeout_ping", t.Ping),
		zap.Duration("timeout_long", t.Long))
	return nil
}
