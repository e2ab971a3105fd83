// Package communitysvc keeps communities in step with identity-provider
// organizations. Every operation is safe to repeat, since webhook deliveries
// can arrive more than once.
package communitysvc

import (
	"context"
	"errors"

	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	client      *mongo.Client
	communities *communitystore.Store
	users       *userstore.Store
	log         *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:      db.Client(),
		communities: communitystore.New(db),
		users:       userstore.New(db),
		log:         logger,
	}
}

// CreateCommunityInput describes a newly created organization.
type CreateCommunityInput struct {
	OrgID     string
	Name      string
	Slug      string
	Image     string
	Bio       string
	CreatedBy string // provider user id of the creator, may be empty
}

// Create upserts the community for OrgID. When the creator is a known user
// the community is added to their communities.
func (s *Service) Create(ctx context.Context, in CreateCommunityInput) (models.Community, error) {
	if in.OrgID == "" {
		return models.Community{}, apperr.Invalid("organization id is required")
	}

	c := models.Community{
		OrgID: in.OrgID,
		Name:  in.Name,
		Slug:  in.Slug,
		Image: in.Image,
		Bio:   in.Bio,
	}

	var creator *models.User
	if in.CreatedBy != "" {
		u, err := s.users.GetByExternalID(ctx, in.CreatedBy)
		switch {
		case err == nil:
			creator = &u
			c.CreatedBy = &u.ID
		case errors.Is(err, apperr.ErrNotFound):
			s.log.Info("community creator not onboarded yet",
				zap.String("org_id", in.OrgID), zap.String("user_id", in.CreatedBy))
		default:
			return models.Community{}, apperr.Persistence("load creator", err)
		}
		c.CreatedByExternalID = in.CreatedBy
	}

	out, err := s.communities.Upsert(ctx, c)
	if err != nil && wafflemongo.IsDup(err) {
		// Two concurrent upserts raced on the unique org_id; the loser retries
		// as an update.
		out, err = s.communities.Upsert(ctx, c)
	}
	if err != nil {
		return models.Community{}, apperr.Persistence("upsert community", err)
	}

	if creator != nil {
		if err := s.users.AddCommunity(ctx, creator.ID, out.ID); err != nil {
			return models.Community{}, apperr.Persistence("link creator", err)
		}
	}

	s.log.Info("community created", zap.String("org_id", in.OrgID), zap.String("community_id", out.ID.Hex()))
	return out, nil
}

// Update refreshes the descriptive fields of an existing community.
func (s *Service) Update(ctx context.Context, orgID, name, slug, image string) (models.Community, error) {
	if orgID == "" {
		return models.Community{}, apperr.Invalid("organization id is required")
	}
	out, err := s.communities.UpdateInfo(ctx, orgID, communitystore.Info{Name: name, Slug: slug, Image: image})
	if err != nil {
		return models.Community{}, apperr.Persistence("update community", err)
	}
	return out, nil
}

// Delete removes the community and drops it from every user's communities.
// Deleting a community that does not exist succeeds.
func (s *Service) Delete(ctx context.Context, orgID string) error {
	if orgID == "" {
		return apperr.Invalid("organization id is required")
	}

	var pulled int64
	var deleted bool
	err := txn.Run(ctx, s.client, s.log,
		txn.Step{
			Name: "delete community",
			Do: func(ctx context.Context) error {
				c, err := s.communities.DeleteByOrgID(ctx, orgID)
				if errors.Is(err, apperr.ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				deleted = true
				pulled, err = s.users.PullCommunityFromAll(ctx, c.ID)
				return err
			},
		},
	)
	if err != nil {
		return apperr.Persistence("delete community", err)
	}
	if deleted {
		s.log.Info("community deleted", zap.String("org_id", orgID), zap.Int64("users_updated", pulled))
	}
	return nil
}

// AddMember records the user as a member on both sides. Repeating it changes
// nothing.
func (s *Service) AddMember(ctx context.Context, orgID, externalUserID string) error {
	if orgID == "" || externalUserID == "" {
		return apperr.Invalid("organization id and user id are required")
	}
	c, err := s.communities.GetByOrgID(ctx, orgID)
	if err != nil {
		return apperr.Persistence("load community", err)
	}
	u, err := s.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return apperr.Persistence("load member", err)
	}

	err = txn.Run(ctx, s.client, s.log,
		txn.Step{
			Name: "add member",
			Do:   func(ctx context.Context) error { return s.communities.AddMember(ctx, c.ID, u.ID) },
			Undo: func(ctx context.Context) error { return s.communities.RemoveMember(ctx, c.ID, u.ID) },
		},
		txn.Step{
			Name: "add community to user",
			Do:   func(ctx context.Context) error { return s.users.AddCommunity(ctx, u.ID, c.ID) },
		},
	)
	if err != nil {
		return apperr.Persistence("add member", err)
	}
	return nil
}

// RemoveMember drops the membership on both sides. A missing community or
// user is treated as already removed.
func (s *Service) RemoveMember(ctx context.Context, orgID, externalUserID string) error {
	if orgID == "" || externalUserID == "" {
		return apperr.Invalid("organization id and user id are required")
	}
	c, err := s.communities.GetByOrgID(ctx, orgID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.Debug("remove member: community already gone", zap.String("org_id", orgID))
		return nil
	}
	if err != nil {
		return apperr.Persistence("load community", err)
	}
	u, err := s.users.GetByExternalID(ctx, externalUserID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.Debug("remove member: user unknown", zap.String("user_id", externalUserID))
		return nil
	}
	if err != nil {
		return apperr.Persistence("load member", err)
	}

	err = txn.Run(ctx, s.client, s.log,
		txn.Step{
			Name: "remove member",
			Do:   func(ctx context.Context) error { return ignoreNotFound(s.communities.RemoveMember(ctx, c.ID, u.ID)) },
		},
		txn.Step{
			Name: "remove community from user",
			Do:   func(ctx context.Context) error { return ignoreNotFound(s.users.RemoveCommunity(ctx, u.ID, c.ID)) },
		},
	)
	if err != nil {
		return apperr.Persistence("remove member", err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}
