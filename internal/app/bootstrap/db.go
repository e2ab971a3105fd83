// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/docstore"
	"github.com/dalemusser/threadhub/internal/app/system/indexes"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the shared document store handle.
//
// A missing connection string is logged and skipped: the returned deps have
// no database and the service starts degraded. Any other connect failure
// aborts startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{
		Conn: docstore.New(docstore.Config{
			URI:         appCfg.MongoURI,
			Database:    appCfg.MongoDatabase,
			MaxPoolSize: appCfg.MongoMaxPoolSize,
			MinPoolSize: appCfg.MongoMinPoolSize,
		}, logger),
		WebhookLimiter: ratelimit.New(float64(appCfg.WebhookRateLimit), appCfg.WebhookRateBurst, appCfg.TrustedProxies),
	}

	cctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "connect document store")
	defer cancel()

	db, err := deps.Conn.Connect(cctx)
	if errors.Is(err, apperr.ErrConfiguration) {
		logger.Error("document store not configured; data routes will answer 503", zap.Error(err))
		return deps, nil
	}
	if err != nil {
		deps.WebhookLimiter.Close()
		return DBDeps{}, err
	}
	deps.DB = db
	return deps, nil
}

// EnsureSchema creates indexes and collection validators. Both are
// idempotent and skipped in degraded mode.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Degraded() {
		logger.Warn("skipping schema setup: no document store")
		return nil
	}
	if err := indexes.EnsureAll(ctx, deps.DB); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	if err := validators.EnsureAll(ctx, deps.DB); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	return nil
}
