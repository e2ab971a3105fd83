package users_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/app/features/users"
	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/services/usersvc"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(db *mongo.Database) chi.Router {
	us := usersvc.New(db, "/profile/edit", zap.NewNop())
	ts := threadsvc.New(db, threadsvc.Config{DefaultDepth: 2, MaxDepth: 8}, zap.NewNop())
	return users.Routes(users.NewHandler(us, ts, 20, 100, zap.NewNop()))
}

func TestUpdateThenShow(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	router := newRouter(db)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/user_abc", map[string]string{
		"username": "Alice", "name": "Alice A", "bio": "<b>hi</b>", "path": "/profile/edit",
	}))
	rec.AssertStatus(t, http.StatusOK)
	var mut models.Mutation
	rec.DecodeJSON(t, &mut)
	if mut.ID == "" || mut.Revalidate != "/profile/edit" {
		t.Errorf("unexpected mutation: %+v", mut)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/user_abc"))
	rec.AssertStatus(t, http.StatusOK)
	var u models.User
	rec.DecodeJSON(t, &u)
	if u.Username != "alice" || !u.Onboarded || u.ExternalID != "user_abc" {
		t.Errorf("unexpected user: %+v", u)
	}

	// A second account claiming the same username conflicts.
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/user_other", map[string]string{
		"username": "alice", "name": "Other",
	}))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/user_missing"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-time.Hour)
	me := fixtures.CreateUserAt(ctx, "me", "Me", base)
	fixtures.CreateUserAt(ctx, "alice", "Alice", base.Add(time.Minute))
	fixtures.CreateUserAt(ctx, "bob", "Bob", base.Add(2*time.Minute))
	router := newRouter(db)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/?exclude="+me.ExternalID+"&q=ALI&size=5"))
	rec.AssertStatus(t, http.StatusOK)

	var page usersvc.UsersPage
	rec.DecodeJSON(t, &page)
	if len(page.Users) != 1 || page.Users[0].Username != "alice" || page.IsNext {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestPostsAndActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	bob := fixtures.CreateUser(ctx, "bob", "Bob")
	now := time.Now().UTC()
	post := fixtures.CreateThread(ctx, alice.ID, "post", now)
	fixtures.CreateComment(ctx, post.ID, bob.ID, "reply", now.Add(time.Second))
	router := newRouter(db)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+alice.ExternalID+"/threads"))
	rec.AssertStatus(t, http.StatusOK)
	var posts threadsvc.UserPosts
	rec.DecodeJSON(t, &posts)
	if len(posts.Threads) != 1 || len(posts.Threads[0].Children) != 1 {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+alice.ID.Hex()+"/activity"))
	rec.AssertStatus(t, http.StatusOK)
	var activity struct {
		Activity []models.ThreadNode `json:"activity"`
	}
	rec.DecodeJSON(t, &activity)
	if len(activity.Activity) != 1 || activity.Activity[0].Text != "reply" {
		t.Errorf("unexpected activity: %+v", activity)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+bob.ID.Hex()+"/activity"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"activity":[]`)
}

func TestShow_HonorsTimeout(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	router := newRouter(db)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/user_abc", map[string]string{"username": "alice", "name": "Alice"}))
	rec.AssertStatus(t, http.StatusOK)

	timeouts.Configure(timeouts.Config{Short: time.Nanosecond})
	defer timeouts.Reset()

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/user_abc"))
	rec.AssertStatus(t, http.StatusInternalServerError)
}
