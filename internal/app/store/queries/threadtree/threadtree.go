// Package threadtree resolves thread references into populated trees.
//
// Population walks the tree one level at a time: each level's child ids are
// fetched with a single $in query, and every author in the result is fetched
// with one more. References that do not resolve are dropped (children) or
// left nil (authors).
package threadtree

import (
	"context"

	threadstore "github.com/dalemusser/threadhub/internal/app/store/threads"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Loader populates threads from the threads and users collections.
type Loader struct {
	threads *threadstore.Store
	users   *userstore.Store
}

// New returns a Loader over db.
func New(db *mongo.Database) *Loader {
	return &Loader{threads: threadstore.New(db), users: userstore.New(db)}
}

type treeNode struct {
	th       models.Thread
	children []*treeNode
}

// Populate returns one node per root, in the order given, with children
// resolved depth levels deep. Depth 0 resolves only the roots' authors.
func (l *Loader) Populate(ctx context.Context, roots []models.Thread, depth int) ([]models.ThreadNode, error) {
	if len(roots) == 0 {
		return []models.ThreadNode{}, nil
	}

	seen := make(map[primitive.ObjectID]bool)
	top := make([]*treeNode, 0, len(roots))
	for _, th := range roots {
		seen[th.ID] = true
		top = append(top, &treeNode{th: th})
	}

	all := append([]*treeNode(nil), top...)
	level := top
	for d := 0; d < depth && len(level) > 0; d++ {
		var ids []primitive.ObjectID
		for _, n := range level {
			for _, id := range n.th.Children {
				if !seen[id] {
					ids = append(ids, id)
				}
			}
		}
		if len(ids) == 0 {
			break
		}

		found, err := l.threads.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[primitive.ObjectID]models.Thread, len(found))
		for _, th := range found {
			byID[th.ID] = th
		}

		var next []*treeNode
		for _, n := range level {
			for _, id := range n.th.Children {
				th, ok := byID[id]
				if !ok || seen[id] {
					continue
				}
				seen[id] = true
				child := &treeNode{th: th}
				n.children = append(n.children, child)
				next = append(next, child)
			}
		}
		all = append(all, next...)
		level = next
	}

	authors, err := l.authors(ctx, all)
	if err != nil {
		return nil, err
	}

	out := make([]models.ThreadNode, 0, len(top))
	for _, n := range top {
		out = append(out, materialize(n, authors))
	}
	return out, nil
}

// PopulateOne is Populate for a single root.
func (l *Loader) PopulateOne(ctx context.Context, root models.Thread, depth int) (models.ThreadNode, error) {
	nodes, err := l.Populate(ctx, []models.Thread{root}, depth)
	if err != nil {
		return models.ThreadNode{}, err
	}
	return nodes[0], nil
}

func (l *Loader) authors(ctx context.Context, nodes []*treeNode) (map[primitive.ObjectID]*models.AuthorRef, error) {
	want := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, n := range nodes {
		if !want[n.th.Author] {
			want[n.th.Author] = true
			ids = append(ids, n.th.Author)
		}
	}

	users, err := l.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]*models.AuthorRef, len(users))
	for _, u := range users {
		out[u.ID] = models.NewAuthorRef(u)
	}
	return out, nil
}

func materialize(n *treeNode, authors map[primitive.ObjectID]*models.AuthorRef) models.ThreadNode {
	node := models.ThreadNode{
		ID:         n.th.ID,
		Text:       n.th.Text,
		Author:     authors[n.th.Author],
		Community:  n.th.Community,
		CreatedAt:  n.th.CreatedAt,
		ParentID:   n.th.ParentID,
		ChildCount: len(n.th.Children),
		Children:   make([]models.ThreadNode, 0, len(n.children)),
	}
	for _, c := range n.children {
		node.Children = append(node.Children, materialize(c, authors))
	}
	return node
}
