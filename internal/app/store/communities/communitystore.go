// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

// Upsert creates the community for c.OrgID or refreshes its descriptive
// fields. Members and threads are never touched, so a redelivered create
// event leaves membership intact.
func (s *Store) Upsert(ctx context.Context, c models.Community) (models.Community, error) {
	now := time.Now().UTC()
	set := bson.M{
		"name":       c.Name,
		"slug":       c.Slug,
		"image":      c.Image,
		"bio":        c.Bio,
		"updated_at": now,
	}
	if c.CreatedBy != nil {
		set["created_by"] = c.CreatedBy
	}
	if c.CreatedByExternalID != "" {
		set["created_by_external_id"] = c.CreatedByExternalID
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"members":    bson.A{},
			"threads":    bson.A{},
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Community
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"org_id": c.OrgID}, update, opts).Decode(&out); err != nil {
		return models.Community{}, err
	}
	return out, nil
}

// GetByOrgID loads a community by provider org id.
func (s *Store) GetByOrgID(ctx context.Context, orgID string) (models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, bson.M{"org_id": orgID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Community{}, apperr.NotFound("community")
		}
		return models.Community{}, err
	}
	return c, nil
}

// Info is the set of fields an organization.updated event may change.
// Empty values are left as stored.
type Info struct {
	Name  string
	Slug  string
	Image string
}

// UpdateInfo applies info to the community for orgID.
func (s *Store) UpdateInfo(ctx context.Context, orgID string, info Info) (models.Community, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if info.Name != "" {
		set["name"] = info.Name
	}
	if info.Slug != "" {
		set["slug"] = info.Slug
	}
	if info.Image != "" {
		set["image"] = info.Image
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Community
	err := s.c.FindOneAndUpdate(ctx, bson.M{"org_id": orgID}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Community{}, apperr.NotFound("community")
		}
		return models.Community{}, err
	}
	return out, nil
}

// DeleteByOrgID removes the community and returns the deleted document, or
// ErrNotFound when there was none.
func (s *Store) DeleteByOrgID(ctx context.Context, orgID string) (models.Community, error) {
	var out models.Community
	if err := s.c.FindOneAndDelete(ctx, bson.M{"org_id": orgID}).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Community{}, apperr.NotFound("community")
		}
		return models.Community{}, err
	}
	return out, nil
}

// AddMember adds userID to members; repeating it is a no-op.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"members": userID}})
}

// RemoveMember removes userID from members; repeating it is a no-op.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$pull": bson.M{"members": userID}})
}

// AddThread records threadID as posted in the community.
func (s *Store) AddThread(ctx context.Context, id, threadID primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"threads": threadID}})
}

// RemoveThread is the compensating write for AddThread.
func (s *Store) RemoveThread(ctx context.Context, id, threadID primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$pull": bson.M{"threads": threadID}})
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("community")
	}
	return nil
}
