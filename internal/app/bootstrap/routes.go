// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	healthfeature "github.com/dalemusser/threadhub/internal/app/features/health"
	threadsfeature "github.com/dalemusser/threadhub/internal/app/features/threads"
	usersfeature "github.com/dalemusser/threadhub/internal/app/features/users"
	webhooksfeature "github.com/dalemusser/threadhub/internal/app/features/webhooks"
	"github.com/dalemusser/threadhub/internal/app/services/communitysvc"
	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/services/usersvc"
	auditstore "github.com/dalemusser/threadhub/internal/app/store/audit"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/respond"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// threadhub mounts:
//   - /health                 store connectivity
//   - /threads, /users        JSON API used by the page layer
//   - /api/webhook/clerk      identity provider events (rate limited per IP)
//
// In degraded mode the data routes answer 503 and webhook deliveries that
// pass verification fail with 500.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Conn, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	var store *auditstore.Store
	if !deps.Degraded() {
		store = auditstore.New(deps.DB)
	}
	audit := auditlog.New(store, logger, auditlog.Config{Webhook: appCfg.AuditLogWebhook, Proxies: appCfg.TrustedProxies})

	var communities webhooksfeature.Mutator = unavailableCommunities{}
	if !deps.Degraded() {
		communities = communitysvc.New(deps.DB, logger)
	}
	var limit func(http.Handler) http.Handler
	if deps.WebhookLimiter != nil {
		limit = deps.WebhookLimiter.Middleware
	}
	webhookHandler := webhooksfeature.NewHandler(communities, appCfg.ClerkWebhookSecret, audit, logger)
	r.Mount("/api/webhook", webhooksfeature.Routes(webhookHandler, limit))

	if deps.Degraded() {
		r.Mount("/threads", unavailable())
		r.Mount("/users", unavailable())
		return r, nil
	}

	threads := threadsvc.New(deps.DB, threadsvc.Config{
		DefaultDepth: appCfg.ThreadTreeDepth,
		MaxDepth:     appCfg.ThreadTreeMaxDepth,
	}, logger)
	users := usersvc.New(deps.DB, appCfg.ProfileEditPath, logger)

	threadsHandler := threadsfeature.NewHandler(threads, appCfg.PageSize, appCfg.MaxPageSize, logger)
	r.Mount("/threads", threadsfeature.Routes(threadsHandler))

	usersHandler := usersfeature.NewHandler(users, threads, appCfg.PageSize, appCfg.MaxPageSize, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	return r, nil
}

// unavailable answers every request with 503.
func unavailable() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Message(w, http.StatusServiceUnavailable, "Database unavailable")
	})
}

// unavailableCommunities fails every community write while the service has
// no document store.
type unavailableCommunities struct{}

var errNoStore = apperr.ErrConfiguration

func (unavailableCommunities) Create(context.Context, communitysvc.CreateCommunityInput) (models.Community, error) {
	return models.Community{}, errNoStore
}

func (unavailableCommunities) Update(context.Context, string, string, string, string) (models.Community, error) {
	return models.Community{}, errNoStore
}

func (unavailableCommunities) Delete(context.Context, string) error { return errNoStore }

func (unavailableCommunities) AddMember(context.Context, string, string) error { return errNoStore }

func (unavailableCommunities) RemoveMember(context.Context, string, string) error { return errNoStore }
