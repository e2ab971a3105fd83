package threads_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/app/features/threads"
	"github.com/dalemusser/threadhub/internal/app/services/threadsvc"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(db *mongo.Database) chi.Router {
	svc := threadsvc.New(db, threadsvc.Config{DefaultDepth: 2, MaxDepth: 4}, zap.NewNop())
	return threads.Routes(threads.NewHandler(svc, 2, 10, zap.NewNop()))
}

func TestList_Paged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	base := time.Now().UTC().Add(-time.Hour)
	for i, text := range []string{"one", "two", "three"} {
		fixtures.CreateThread(ctx, alice.ID, text, base.Add(time.Duration(i)*time.Minute))
	}
	router := newRouter(db)

	tests := []struct {
		target   string
		want     []string
		wantNext bool
	}{
		{"/", []string{"three", "two"}, true},
		{"/?page=2", []string{"one"}, false},
		{"/?page=1&size=50", []string{"three", "two", "one"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, tt.target))
			rec.AssertStatus(t, http.StatusOK)

			var page threadsvc.PostsPage
			rec.DecodeJSON(t, &page)
			if len(page.Posts) != len(tt.want) {
				t.Fatalf("got %d posts, want %d", len(page.Posts), len(tt.want))
			}
			for i, p := range page.Posts {
				if p.Text != tt.want[i] {
					t.Errorf("post %d = %q, want %q", i, p.Text, tt.want[i])
				}
			}
			if page.IsNext != tt.wantNext {
				t.Errorf("isNext = %v, want %v", page.IsNext, tt.wantNext)
			}
		})
	}
}

func TestCreateAndComment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	bob := fixtures.CreateUser(ctx, "bob", "Bob")
	router := newRouter(db)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"text": "hello", "author": alice.ID.Hex(), "path": "/",
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var created models.Mutation
	rec.DecodeJSON(t, &created)
	if created.ID == "" || created.Revalidate != "/" {
		t.Fatalf("unexpected mutation: %+v", created)
	}

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/"+created.ID+"/comments", map[string]string{
		"text": "hi back", "userId": bob.ID.Hex(), "path": "/thread/" + created.ID,
	}))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+created.ID))
	rec.AssertStatus(t, http.StatusOK)
	var node models.ThreadNode
	rec.DecodeJSON(t, &node)
	if node.Text != "hello" || len(node.Children) != 1 {
		t.Fatalf("unexpected tree: %+v", node)
	}
	if c := node.Children[0]; c.Text != "hi back" || c.Author == nil || c.Author.Name != "Bob" {
		t.Errorf("unexpected child: %+v", c)
	}
}

func TestErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	router := newRouter(db)
	missing := "64b7f0c2a1b2c3d4e5f60718"

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"unknown thread", testutil.NewRequest(http.MethodGet, "/"+missing), http.StatusNotFound},
		{"bad id", testutil.NewRequest(http.MethodGet, "/zzz"), http.StatusBadRequest},
		{"bad depth", testutil.NewRequest(http.MethodGet, "/"+missing+"?depth=deep"), http.StatusBadRequest},
		{"empty text", testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"text": "  ", "author": alice.ID.Hex()}), http.StatusBadRequest},
		{"unknown field", testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"text": "x", "author": alice.ID.Hex(), "mood": "happy"}), http.StatusBadRequest},
		{"comment on missing thread", testutil.NewJSONRequest(t, http.MethodPost, "/"+missing+"/comments", map[string]string{"text": "x", "userId": alice.ID.Hex()}), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestHandlers_HonorTimeouts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	th := fixtures.CreateThread(ctx, alice.ID, "root", time.Now().UTC())
	router := newRouter(db)

	timeouts.Configure(timeouts.Config{Medium: time.Nanosecond, Long: time.Nanosecond})
	defer timeouts.Reset()

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"list", testutil.NewRequest(http.MethodGet, "/")},
		{"show", testutil.NewRequest(http.MethodGet, "/"+th.ID.Hex())},
		{"create", testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"text": "hello", "author": alice.ID.Hex()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, tt.req)
			rec.AssertStatus(t, http.StatusInternalServerError)
		})
	}

	if n, err := db.Collection("threads").CountDocuments(ctx, bson.M{"text": "hello"}); err != nil || n != 0 {
		t.Errorf("expected no thread written past the deadline, got %d (err %v)", n, err)
	}
}
