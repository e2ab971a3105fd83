package communitysvc_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/threadhub/internal/app/services/communitysvc"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func contains(ids []primitive.ObjectID, id primitive.ObjectID) int {
	n := 0
	for _, x := range ids {
		if x == id {
			n++
		}
	}
	return n
}

func TestCreate_LinksCreator(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")

	in := communitysvc.CreateCommunityInput{
		OrgID:     "org_1",
		Name:      "Gophers",
		Slug:      "gophers",
		Image:     "https://img.example/logo.png",
		Bio:       "org bio",
		CreatedBy: alice.ExternalID,
	}
	c, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.CreatedBy == nil || *c.CreatedBy != alice.ID {
		t.Errorf("CreatedBy = %v, want %s", c.CreatedBy, alice.ID.Hex())
	}

	// Redelivery keeps a single community and a single link.
	again, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if again.ID != c.ID {
		t.Errorf("expected same community, got %s and %s", c.ID.Hex(), again.ID.Hex())
	}
	n, err := db.Collection("communities").CountDocuments(ctx, bson.M{"org_id": "org_1"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 community, got %d", n)
	}
	if got := contains(fixtures.GetUser(ctx, alice.ID).Communities, c.ID); got != 1 {
		t.Errorf("creator links = %d, want 1", got)
	}
}

func TestCreate_UnknownCreator(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := svc.Create(ctx, communitysvc.CreateCommunityInput{OrgID: "org_1", Name: "Gophers", CreatedBy: "user_nobody"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.CreatedBy != nil {
		t.Errorf("CreatedBy = %v, want nil", c.CreatedBy)
	}
	if c.CreatedByExternalID != "user_nobody" {
		t.Errorf("CreatedByExternalID = %q", c.CreatedByExternalID)
	}
}

func TestCreate_Concurrent(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, communitysvc.CreateCommunityInput{OrgID: "org_race", Name: "Race"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Create failed: %v", err)
		}
	}
	n, err := db.Collection("communities").CountDocuments(ctx, bson.M{"org_id": "org_race"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 community, got %d", n)
	}
}

func TestUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateCommunity(ctx, "org_1", "Old")

	got, err := svc.Update(ctx, "org_1", "New", "new", "https://img.example/new.png")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "New" || got.Slug != "new" || got.Image != "https://img.example/new.png" {
		t.Errorf("unexpected community after update: %+v", got)
	}

	if _, err := svc.Update(ctx, "org_missing", "x", "x", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMembership_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCommunity(ctx, "org_1", "Gophers")
	bob := fixtures.CreateUser(ctx, "bob", "Bob")

	for i := 0; i < 2; i++ {
		if err := svc.AddMember(ctx, "org_1", bob.ExternalID); err != nil {
			t.Fatalf("AddMember #%d failed: %v", i+1, err)
		}
	}
	if got := contains(fixtures.GetCommunity(ctx, "org_1").Members, bob.ID); got != 1 {
		t.Errorf("member entries = %d, want 1", got)
	}
	if got := contains(fixtures.GetUser(ctx, bob.ID).Communities, c.ID); got != 1 {
		t.Errorf("community entries = %d, want 1", got)
	}

	for i := 0; i < 2; i++ {
		if err := svc.RemoveMember(ctx, "org_1", bob.ExternalID); err != nil {
			t.Fatalf("RemoveMember #%d failed: %v", i+1, err)
		}
	}
	if got := contains(fixtures.GetCommunity(ctx, "org_1").Members, bob.ID); got != 0 {
		t.Errorf("member entries = %d, want 0", got)
	}
	if got := contains(fixtures.GetUser(ctx, bob.ID).Communities, c.ID); got != 0 {
		t.Errorf("community entries = %d, want 0", got)
	}
}

func TestMembership_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateCommunity(ctx, "org_1", "Gophers")
	bob := fixtures.CreateUser(ctx, "bob", "Bob")

	tests := []struct {
		name   string
		orgID  string
		userID string
	}{
		{"missing community", "org_missing", bob.ExternalID},
		{"missing user", "org_1", "user_missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.AddMember(ctx, tt.orgID, tt.userID); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("AddMember error = %v, want ErrNotFound", err)
			}
			if err := svc.RemoveMember(ctx, tt.orgID, tt.userID); err != nil {
				t.Errorf("RemoveMember error = %v, want nil", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := communitysvc.New(db, zap.NewNop())
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCommunity(ctx, "org_1", "Gophers")
	bob := fixtures.CreateUser(ctx, "bob", "Bob")
	carol := fixtures.CreateUser(ctx, "carol", "Carol")
	for _, u := range []string{bob.ExternalID, carol.ExternalID} {
		if err := svc.AddMember(ctx, "org_1", u); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}

	if err := svc.Delete(ctx, "org_1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	n, err := db.Collection("communities").CountDocuments(ctx, bson.M{"org_id": "org_1"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("community still present")
	}
	for _, u := range []primitive.ObjectID{bob.ID, carol.ID} {
		if got := contains(fixtures.GetUser(ctx, u).Communities, c.ID); got != 0 {
			t.Errorf("user %s still references deleted community", u.Hex())
		}
	}

	if err := svc.Delete(ctx, "org_1"); err != nil {
		t.Errorf("second Delete should succeed, got %v", err)
	}
}
