// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/threadhub/internal/app/system/docstore"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// DB is nil in degraded mode (no connection string, or the first connect
// failed). Conn is always set so health checks can report the state.
type DBDeps struct {
	Conn *docstore.Conn
	DB   *mongo.Database

	// WebhookLimiter owns a sweeper goroutine and is closed in Shutdown.
	WebhookLimiter *ratelimit.Limiter
}

// Degraded reports whether the service runs without a document store.
func (d DBDeps) Degraded() bool {
	return d.DB == nil
}
