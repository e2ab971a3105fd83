package threadtree_test

import (
	"testing"
	"time"

	"github.com/dalemusser/threadhub/internal/app/store/queries/threadtree"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"github.com/dalemusser/threadhub/internal/testutil"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// shape reduces a node to text and author name so trees compare readably.
type shape struct {
	Text     string
	Author   string
	Count    int
	Children []shape
}

func toShape(n models.ThreadNode) shape {
	s := shape{Text: n.Text, Count: n.ChildCount}
	if n.Author != nil {
		s.Author = n.Author.Name
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, toShape(c))
	}
	return s
}

func TestPopulate_Depth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	loader := threadtree.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	bob := fixtures.CreateUser(ctx, "bob", "Bob")
	now := time.Now().UTC().Truncate(time.Millisecond)

	root := fixtures.CreateThread(ctx, alice.ID, "root", now)
	c1 := fixtures.CreateComment(ctx, root.ID, bob.ID, "c1", now.Add(time.Second))
	fixtures.CreateComment(ctx, root.ID, alice.ID, "c2", now.Add(2*time.Second))
	g1 := fixtures.CreateComment(ctx, c1.ID, alice.ID, "g1", now.Add(3*time.Second))
	fixtures.CreateComment(ctx, g1.ID, bob.ID, "gg1", now.Add(4*time.Second))

	root = fixtures.GetThread(ctx, root.ID)

	tests := []struct {
		depth int
		want  shape
	}{
		{
			depth: 0,
			want:  shape{Text: "root", Author: "Alice", Count: 2},
		},
		{
			depth: 1,
			want: shape{Text: "root", Author: "Alice", Count: 2, Children: []shape{
				{Text: "c1", Author: "Bob", Count: 1},
				{Text: "c2", Author: "Alice"},
			}},
		},
		{
			depth: 2,
			want: shape{Text: "root", Author: "Alice", Count: 2, Children: []shape{
				{Text: "c1", Author: "Bob", Count: 1, Children: []shape{
					{Text: "g1", Author: "Alice", Count: 1},
				}},
				{Text: "c2", Author: "Alice"},
			}},
		},
		{
			depth: 5,
			want: shape{Text: "root", Author: "Alice", Count: 2, Children: []shape{
				{Text: "c1", Author: "Bob", Count: 1, Children: []shape{
					{Text: "g1", Author: "Alice", Count: 1, Children: []shape{
						{Text: "gg1", Author: "Bob"},
					}},
				}},
				{Text: "c2", Author: "Alice"},
			}},
		},
	}

	for _, tt := range tests {
		node, err := loader.PopulateOne(ctx, root, tt.depth)
		if err != nil {
			t.Fatalf("depth %d: PopulateOne failed: %v", tt.depth, err)
		}
		if diff := cmp.Diff(tt.want, toShape(node)); diff != "" {
			t.Errorf("depth %d: tree mismatch (-want +got):\n%s", tt.depth, diff)
		}
	}
}

func TestPopulate_DanglingReferences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	loader := threadtree.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	now := time.Now().UTC()
	root := fixtures.CreateThread(ctx, alice.ID, "root", now)
	ghostAuthor := primitive.NewObjectID()
	fixtures.CreateComment(ctx, root.ID, ghostAuthor, "orphaned author", now.Add(time.Second))

	// A child id with no document behind it.
	if _, err := db.Collection("threads").UpdateByID(ctx, root.ID, bson.M{"$push": bson.M{"children": primitive.NewObjectID()}}); err != nil {
		t.Fatalf("push dangling child: %v", err)
	}
	root = fixtures.GetThread(ctx, root.ID)

	node, err := loader.PopulateOne(ctx, root, 2)
	if err != nil {
		t.Fatalf("PopulateOne failed: %v", err)
	}
	want := shape{Text: "root", Author: "Alice", Count: 2, Children: []shape{
		{Text: "orphaned author"},
	}}
	if diff := cmp.Diff(want, toShape(node)); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if node.Children[0].Author != nil {
		t.Error("expected nil author for dangling reference")
	}
}

func TestPopulate_PreservesRootOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	loader := threadtree.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fixtures.CreateUser(ctx, "alice", "Alice")
	now := time.Now().UTC()
	a := fixtures.CreateThread(ctx, alice.ID, "a", now)
	b := fixtures.CreateThread(ctx, alice.ID, "b", now.Add(time.Second))

	nodes, err := loader.Populate(ctx, []models.Thread{b, a}, 1)
	if err != nil {
		t.Fatalf("Populate failed: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Text != "b" || nodes[1].Text != "a" {
		t.Errorf("unexpected order: %+v", nodes)
	}

	empty, err := loader.Populate(ctx, nil, 2)
	if err != nil {
		t.Fatalf("Populate(nil) failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}
