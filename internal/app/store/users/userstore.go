package userstore

// Terminology: User Identifiers
//   - UserID / userID / _id: The MongoDB ObjectID other documents reference
//   - ExternalID / external_id: The identity provider's user id, used by the page layer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUsername is returned when an upsert would give two users the
// same username.
var ErrDuplicateUsername = fmt.Errorf("username already taken: %w", apperr.ErrDuplicate)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Profile holds the fields a profile edit may change.
type Profile struct {
	ExternalID string
	Username   string // already normalized by the caller
	Name       string
	Bio        string
	Image      string
}

// Upsert updates the user with p.ExternalID or inserts one, marking it
// onboarded either way. It returns the stored document.
func (s *Store) Upsert(ctx context.Context, p Profile) (models.User, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"username":   p.Username,
			"name":       p.Name,
			"bio":        p.Bio,
			"image":      p.Image,
			"onboarded":  true,
			"updated_at": now,
		},
		// external_id comes from the filter on insert.
		"$setOnInsert": bson.M{
			"threads":     bson.A{},
			"communities": bson.A{},
			"created_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx, bson.M{"external_id": p.ExternalID}, update, opts).Decode(&u)
	if err != nil && dupIndex(err) == externalIDIndex {
		// A concurrent first upsert inserted the user; the retry matches it.
		err = s.c.FindOneAndUpdate(ctx, bson.M{"external_id": p.ExternalID}, update, opts).Decode(&u)
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			if dupIndex(err) == usernameIndex {
				return models.User{}, ErrDuplicateUsername
			}
			return models.User{}, fmt.Errorf("upsert user: %w: %v", apperr.ErrDuplicate, err)
		}
		return models.User{}, err
	}
	return u, nil
}

// Unique index names on the users collection.
const (
	externalIDIndex = "uniq_users_external_id"
	usernameIndex   = "uniq_users_username"
)

var dupIndexPattern = regexp.MustCompile(`index: (\S+) dup key`)

// dupIndex names the unique index a duplicate-key error tripped, or "" when
// err is not one.
func dupIndex(err error) string {
	if !wafflemongo.IsDup(err) {
		return ""
	}
	if m := dupIndexPattern.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return ""
}

// GetByExternalID loads a user by identity-provider id.
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (models.User, error) {
	return s.findOne(ctx, bson.M{"external_id": externalID})
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.NotFound("user")
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByIDs loads users by ObjectID. Ids with no document are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListFilter selects and orders a page of the user directory.
type ListFilter struct {
	ExcludeExternalID string
	Search            string // substring of username or name, case-insensitive
	Sort              int    // 1 oldest first, -1 newest first
	Skip              int64
	Limit             int64
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if f.ExcludeExternalID != "" {
		q["external_id"] = bson.M{"$ne": f.ExcludeExternalID}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"username": re},
			bson.M{"name": re},
		}
	}
	return q
}

// List returns one page of users and the total number matching f.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, int64, error) {
	q := f.query()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	dir := f.Sort
	if dir != 1 {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(f.Skip)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// AddThread appends threadID to the user's threads.
func (s *Store) AddThread(ctx context.Context, userID, threadID primitive.ObjectID) error {
	return s.updateOne(ctx, userID, bson.M{"$push": bson.M{"threads": threadID}})
}

// RemoveThread is the compensating write for AddThread.
func (s *Store) RemoveThread(ctx context.Context, userID, threadID primitive.ObjectID) error {
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"threads": threadID}})
}

// AddCommunity records membership; repeating it is a no-op.
func (s *Store) AddCommunity(ctx context.Context, userID, communityID primitive.ObjectID) error {
	return s.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{"communities": communityID}})
}

// RemoveCommunity drops membership; repeating it is a no-op.
func (s *Store) RemoveCommunity(ctx context.Context, userID, communityID primitive.ObjectID) error {
	return s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"communities": communityID}})
}

// PullCommunityFromAll removes communityID from every user. Returns the
// number of users modified.
func (s *Store) PullCommunityFromAll(ctx context.Context, communityID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"communities": communityID},
		bson.M{"$pull": bson.M{"communities": communityID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) updateOne(ctx context.Context, userID primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, userID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
