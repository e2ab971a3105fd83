// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/threadhub/internal/app/store/audit"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Webhook controls logging for identity-provider webhook deliveries.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Webhook string

	// Proxies whose forwarding headers are believed when recording the
	// client IP. Nil records the connection's address.
	Proxies ratelimit.Proxies
}

// Logger records audit events to MongoDB (via audit.Store) and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when the service runs
// without a database; events then only reach zap.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.Status != 0 {
		fields = append(fields, zap.Int("status", event.Status))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so tests can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryWebhook:
		setting = l.config.Webhook
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Webhook Events ---

// Delivery describes one webhook request and how it was answered.
type Delivery struct {
	ID      string // svix-id header
	Type    string // event type from the payload, empty when unparsed
	OrgID   string
	UserID  string // provider user id, for membership events
	Status  int
	Handled bool   // routed to a mutation or an acknowledged no-op
	Reason  string // failure reason, empty on success
}

// WebhookDelivery logs the outcome of a webhook request.
func (l *Logger) WebhookDelivery(ctx context.Context, r *http.Request, d Delivery) {
	if l == nil {
		return
	}
	eventType := audit.EventWebhookHandled
	switch {
	case d.Status >= 500:
		eventType = audit.EventWebhookFailed
	case d.Status >= 400:
		eventType = audit.EventWebhookRejected
	case !d.Handled:
		eventType = audit.EventWebhookIgnored
	}

	details := map[string]string{"status": strconv.Itoa(d.Status)}
	if d.ID != "" {
		details["delivery_id"] = d.ID
	}
	if d.Type != "" {
		details["type"] = d.Type
	}
	if d.OrgID != "" {
		details["org_id"] = d.OrgID
	}
	if d.UserID != "" {
		details["user_id"] = d.UserID
	}

	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWebhook,
		EventType:     eventType,
		IP:            l.config.Proxies.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Status:        d.Status,
		Success:       d.Status < 400,
		FailureReason: d.Reason,
		Details:       details,
	})
}
