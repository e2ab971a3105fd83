// Package webhooks receives signed organization events from the identity
// provider and applies them to communities.
package webhooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/threadhub/internal/app/services/communitysvc"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auditlog"
	"github.com/dalemusser/threadhub/internal/app/system/respond"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/google/uuid"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"
)

// MaxBodyBytes bounds a delivery body.
const MaxBodyBytes = 1 << 20

// Header names carrying the signature.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"
)

// CorrelationPrefix marks a delivery id generated locally because the
// request carried no svix-id.
const CorrelationPrefix = "local_"

// Mutator is the set of community writes an event can trigger.
// *communitysvc.Service implements it.
type Mutator interface {
	Create(ctx context.Context, in communitysvc.CreateCommunityInput) (models.Community, error)
	Update(ctx context.Context, orgID, name, slug, image string) (models.Community, error)
	Delete(ctx context.Context, orgID string) error
	AddMember(ctx context.Context, orgID, externalUserID string) error
	RemoveMember(ctx context.Context, orgID, externalUserID string) error
}

type Handler struct {
	Communities Mutator
	Audit       *auditlog.Logger
	Log         *zap.Logger

	wh *svix.Webhook
}

// NewHandler builds the dispatcher. An empty or unusable secret is logged
// here and answered with 500 on every delivery.
func NewHandler(communities Mutator, secret string, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{Communities: communities, Audit: audit, Log: logger}
	if secret == "" {
		logger.Warn("webhook secret not configured; deliveries will be refused")
		return h
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		logger.Error("webhook secret rejected; deliveries will be refused", zap.Error(err))
		return h
	}
	h.wh = wh
	return h
}

// outcome is how one delivery was answered.
type outcome struct {
	status  int
	message string
	handled bool
	userID  string
	err     error
}

// Serve handles POST /api/webhook/clerk.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	msgID := r.Header.Get(HeaderID)
	d := auditlog.Delivery{ID: msgID}
	if d.ID == "" {
		d.ID = CorrelationPrefix + uuid.NewString()
	}
	defer func() { h.Audit.WebhookDelivery(r.Context(), r, d) }()

	if h.wh == nil {
		d.Status, d.Reason = http.StatusInternalServerError, "secret not configured"
		respond.Text(w, d.Status, "Error: Webhook secret not configured")
		return
	}

	if msgID == "" || r.Header.Get(HeaderTimestamp) == "" || r.Header.Get(HeaderSignature) == "" {
		h.Log.Warn("webhook signature headers missing", zap.String("delivery_id", d.ID))
		d.Status, d.Reason = http.StatusBadRequest, "missing signature headers"
		respond.Text(w, d.Status, "Error occurred -- no svix headers")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		d.Status, d.Reason = http.StatusBadRequest, "body unreadable"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			d.Reason = "body too large"
		}
		respond.Text(w, d.Status, "Error: "+d.Reason)
		return
	}

	if err := h.wh.Verify(body, r.Header); err != nil {
		err = fmt.Errorf("%w: %v", apperr.ErrVerification, err)
		h.Log.Warn("webhook verification failed", zap.String("delivery_id", d.ID), zap.Error(err))
		d.Status, d.Reason = http.StatusBadRequest, err.Error()
		respond.Message(w, d.Status, "Webhook verification failed!")
		return
	}

	eventType, ev, err := decode(body)
	d.Type = eventType
	if err != nil {
		h.Log.Warn("webhook payload rejected",
			zap.String("delivery_id", d.ID), zap.String("type", eventType), zap.Error(err))
		d.Status, d.Reason = http.StatusBadRequest, err.Error()
		respond.Message(w, d.Status, err.Error())
		return
	}

	if ev == nil {
		h.Log.Info("webhook event type not handled", zap.String("type", eventType))
		d.Status = http.StatusOK
		respond.Text(w, d.Status, "Webhook received, event type not explicitly handled")
		return
	}

	d.OrgID = ev.orgID()
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	out := h.dispatch(ctx, ev)
	d.Status, d.Handled, d.UserID = out.status, out.handled, out.userID
	if out.err != nil {
		h.Log.Error("webhook event failed",
			zap.String("delivery_id", d.ID),
			zap.String("type", eventType),
			zap.String("org_id", d.OrgID),
			zap.Error(out.err))
		d.Reason = out.err.Error()
	} else {
		h.Log.Info("webhook event processed",
			zap.String("delivery_id", d.ID), zap.String("type", eventType), zap.String("org_id", d.OrgID))
	}
	respond.Message(w, out.status, out.message)
}

// dispatch routes a validated event to its community mutation.
func (h *Handler) dispatch(ctx context.Context, ev event) outcome {
	switch e := ev.(type) {
	case *organizationCreated:
		_, err := h.Communities.Create(ctx, communitysvc.CreateCommunityInput{
			OrgID:     e.ID,
			Name:      e.Name,
			Slug:      e.Slug,
			Image:     e.image(),
			Bio:       "org bio",
			CreatedBy: e.CreatedBy,
		})
		if err != nil {
			return failed("Internal Server Error during community creation", err)
		}
		return outcome{status: http.StatusCreated, message: "Community created successfully", handled: true}

	case *invitationCreated:
		h.Log.Info("organization invitation created",
			zap.String("invitation_id", e.ID), zap.String("org_id", e.OrganizationID))
		return outcome{status: http.StatusOK, message: "Invitation created processed", handled: true}

	case *membershipCreated:
		userID := e.PublicUserData.UserID
		if err := h.Communities.AddMember(ctx, e.Organization.ID, userID); err != nil {
			out := failed("Internal Server Error processing membership creation", err)
			out.userID = userID
			return out
		}
		return outcome{status: http.StatusOK, message: "Organization membership processed", handled: true, userID: userID}

	case *membershipDeleted:
		userID := e.PublicUserData.UserID
		if err := h.Communities.RemoveMember(ctx, e.Organization.ID, userID); err != nil {
			out := failed("Internal Server Error", err)
			out.userID = userID
			return out
		}
		return outcome{status: http.StatusOK, message: "Member removed processed", handled: true, userID: userID}

	case *organizationUpdated:
		if _, err := h.Communities.Update(ctx, e.ID, e.Name, e.Slug, e.LogoURL); err != nil {
			return failed("Internal Server Error", err)
		}
		return outcome{status: http.StatusOK, message: "Organization updated processed", handled: true}

	case *organizationDeleted:
		if err := h.Communities.Delete(ctx, e.ID); err != nil {
			return failed("Internal Server Error", err)
		}
		return outcome{status: http.StatusOK, message: "Organization deletion processed", handled: true}
	}
	return outcome{status: http.StatusOK, message: "Webhook received, event type not explicitly handled"}
}

func failed(msg string, err error) outcome {
	return outcome{status: http.StatusInternalServerError, message: msg, handled: true, err: err}
}
