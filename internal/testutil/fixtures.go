package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts documents directly, bypassing the services, so tests can
// set up state the services would refuse to create.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an onboarded user whose external id is "user_<username>".
func (f *Fixtures) CreateUser(ctx context.Context, username, name string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID(),
		ExternalID:  "user_" + username,
		Username:    strings.ToLower(username),
		Name:        name,
		Onboarded:   true,
		Threads:     []primitive.ObjectID{},
		Communities: []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateUserAt is CreateUser with an explicit creation time.
func (f *Fixtures) CreateUserAt(ctx context.Context, username, name string, at time.Time) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, username, name)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"created_at": at}}); err != nil {
		f.t.Fatalf("failed to set created_at: %v", err)
	}
	u.CreatedAt = at
	return u
}

// CreateThread inserts a top-level thread by author and appends it to the
// author's threads.
func (f *Fixtures) CreateThread(ctx context.Context, author primitive.ObjectID, text string, at time.Time) models.Thread {
	f.t.Helper()

	th := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    author,
		CreatedAt: at,
		Children:  []primitive.ObjectID{},
	}
	if _, err := f.db.Collection("threads").InsertOne(ctx, th); err != nil {
		f.t.Fatalf("failed to create test thread: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateByID(ctx, author, bson.M{"$push": bson.M{"threads": th.ID}}); err != nil {
		f.t.Fatalf("failed to link thread to author: %v", err)
	}
	return th
}

// CreateComment inserts a reply under parent and appends it to parent's
// children.
func (f *Fixtures) CreateComment(ctx context.Context, parent primitive.ObjectID, author primitive.ObjectID, text string, at time.Time) models.Thread {
	f.t.Helper()

	parentHex := parent.Hex()
	th := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    author,
		CreatedAt: at,
		ParentID:  &parentHex,
		Children:  []primitive.ObjectID{},
	}
	if _, err := f.db.Collection("threads").InsertOne(ctx, th); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	if _, err := f.db.Collection("threads").UpdateByID(ctx, parent, bson.M{"$push": bson.M{"children": th.ID}}); err != nil {
		f.t.Fatalf("failed to link comment to parent: %v", err)
	}
	return th
}

// CreateCommunity inserts a community for orgID with no members.
func (f *Fixtures) CreateCommunity(ctx context.Context, orgID, name string) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Community{
		ID:        primitive.NewObjectID(),
		OrgID:     orgID,
		Name:      name,
		Slug:      strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Members:   []primitive.ObjectID{},
		Threads:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("communities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	return c
}

// GetUser reloads a user by _id.
func (f *Fixtures) GetUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()

	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("failed to load user %s: %v", id.Hex(), err)
	}
	return u
}

// GetThread reloads a thread by _id.
func (f *Fixtures) GetThread(ctx context.Context, id primitive.ObjectID) models.Thread {
	f.t.Helper()

	var th models.Thread
	if err := f.db.Collection("threads").FindOne(ctx, bson.M{"_id": id}).Decode(&th); err != nil {
		f.t.Fatalf("failed to load thread %s: %v", id.Hex(), err)
	}
	return th
}

// GetCommunity reloads a community by org id.
func (f *Fixtures) GetCommunity(ctx context.Context, orgID string) models.Community {
	f.t.Helper()

	var c models.Community
	if err := f.db.Collection("communities").FindOne(ctx, bson.M{"org_id": orgID}).Decode(&c); err != nil {
		f.t.Fatalf("failed to load community %s: %v", orgID, err)
	}
	return c
}
