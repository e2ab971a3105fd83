// Package threadsvc implements posting, commenting and reading threads.
//
// Ids crossing this boundary are strings: AuthorID, UserID and ThreadID are
// ObjectID hex, CommunityID and the FetchUserPosts argument are
// identity-provider ids. Two-document writes run through txn.Run.
package threadsvc

import (
	"context"
	"time"

	communitystore "github.com/dalemusser/threadhub/internal/app/store/communities"
	"github.com/dalemusser/threadhub/internal/app/store/queries/threadtree"
	threadstore "github.com/dalemusser/threadhub/internal/app/store/threads"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/app/system/txn"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Default population depths.
const (
	DefaultDepth    = 2
	DefaultMaxDepth = 8
)

// Config bounds tree population.
type Config struct {
	DefaultDepth int // used when a caller passes a negative depth
	MaxDepth     int
}

type Service struct {
	client      *mongo.Client
	threads     *threadstore.Store
	users       *userstore.Store
	communities *communitystore.Store
	tree        *threadtree.Loader
	cfg         Config
	log         *zap.Logger
}

// New builds the service over db.
func New(db *mongo.Database, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.DefaultDepth < 0 {
		cfg.DefaultDepth = DefaultDepth
	}
	if cfg.DefaultDepth > cfg.MaxDepth {
		cfg.DefaultDepth = cfg.MaxDepth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:      db.Client(),
		threads:     threadstore.New(db),
		users:       userstore.New(db),
		communities: communitystore.New(db),
		tree:        threadtree.New(db),
		cfg:         cfg,
		log:         logger,
	}
}

// CreateThreadInput is the payload for a new top-level thread.
type CreateThreadInput struct {
	Text        string
	AuthorID    string
	CommunityID string // provider org id; empty for a personal post
	Path        string
}

// CreateThread inserts a top-level thread, appends it to the author's
// threads and, when CommunityID is set, to the community's threads.
func (s *Service) CreateThread(ctx context.Context, in CreateThreadInput) (models.Mutation, error) {
	authorID, err := parseID("author id", in.AuthorID)
	if err != nil {
		return models.Mutation{}, err
	}
	text := htmlsanitize.Text(in.Text)
	if text == "" {
		return models.Mutation{}, apperr.Invalid("thread text is required")
	}

	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return models.Mutation{}, apperr.Persistence("load author", err)
	}

	th := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    authorID,
		CreatedAt: time.Now().UTC(),
		Children:  []primitive.ObjectID{},
	}

	var community *models.Community
	if in.CommunityID != "" {
		c, err := s.communities.GetByOrgID(ctx, in.CommunityID)
		if err != nil {
			return models.Mutation{}, apperr.Persistence("load community", err)
		}
		community = &c
		th.Community = &c.ID
	}

	steps := []txn.Step{
		{
			Name: "insert thread",
			Do: func(ctx context.Context) error {
				_, err := s.threads.Create(ctx, th)
				return err
			},
			Undo: func(ctx context.Context) error { return s.threads.Delete(ctx, th.ID) },
		},
		{
			Name: "link author",
			Do:   func(ctx context.Context) error { return s.users.AddThread(ctx, authorID, th.ID) },
			Undo: func(ctx context.Context) error { return s.users.RemoveThread(ctx, authorID, th.ID) },
		},
	}
	if community != nil {
		steps = append(steps, txn.Step{
			Name: "link community",
			Do:   func(ctx context.Context) error { return s.communities.AddThread(ctx, community.ID, th.ID) },
			Undo: func(ctx context.Context) error { return s.communities.RemoveThread(ctx, community.ID, th.ID) },
		})
	}

	if err := txn.Run(ctx, s.client, s.log, steps...); err != nil {
		return models.Mutation{}, apperr.Persistence("create thread", err)
	}

	s.log.Debug("thread created",
		zap.String("thread_id", th.ID.Hex()),
		zap.String("author_id", authorID.Hex()))
	return models.Mutation{ID: th.ID.Hex(), Revalidate: in.Path}, nil
}

// AddCommentInput is the payload for a reply.
type AddCommentInput struct {
	ThreadID string
	Text     string
	UserID   string
	Path     string
}

// AddCommentToThread creates a child of ThreadID and appends it to the
// parent's children with an atomic $push.
func (s *Service) AddCommentToThread(ctx context.Context, in AddCommentInput) (models.Mutation, error) {
	parentID, err := parseID("thread id", in.ThreadID)
	if err != nil {
		return models.Mutation{}, err
	}
	authorID, err := parseID("user id", in.UserID)
	if err != nil {
		return models.Mutation{}, err
	}
	text := htmlsanitize.Text(in.Text)
	if text == "" {
		return models.Mutation{}, apperr.Invalid("comment text is required")
	}

	parent, err := s.threads.GetByID(ctx, parentID)
	if err != nil {
		return models.Mutation{}, apperr.Persistence("load thread", err)
	}
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return models.Mutation{}, apperr.Persistence("load author", err)
	}

	parentHex := parent.ID.Hex()
	child := models.Thread{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    authorID,
		CreatedAt: time.Now().UTC(),
		ParentID:  &parentHex,
		Children:  []primitive.ObjectID{},
	}

	err = txn.Run(ctx, s.client, s.log,
		txn.Step{
			Name: "insert comment",
			Do: func(ctx context.Context) error {
				_, err := s.threads.Create(ctx, child)
				return err
			},
			Undo: func(ctx context.Context) error { return s.threads.Delete(ctx, child.ID) },
		},
		txn.Step{
			Name: "link parent",
			Do:   func(ctx context.Context) error { return s.threads.AppendChild(ctx, parent.ID, child.ID) },
		},
	)
	if err != nil {
		return models.Mutation{}, apperr.Persistence("add comment", err)
	}

	s.log.Debug("comment added",
		zap.String("thread_id", parentHex),
		zap.String("comment_id", child.ID.Hex()))
	return models.Mutation{ID: child.ID.Hex(), Revalidate: in.Path}, nil
}

// PostsPage is one page of the feed.
type PostsPage struct {
	Posts  []models.ThreadNode `json:"posts"`
	IsNext bool                `json:"isNext"`
}

// FetchPosts returns top-level threads newest first, each with its author and
// its direct children's authors.
func (s *Service) FetchPosts(ctx context.Context, page paging.Page) (PostsPage, error) {
	if err := page.Validate(); err != nil {
		return PostsPage{}, err
	}

	total, err := s.threads.CountTopLevel(ctx)
	if err != nil {
		return PostsPage{}, apperr.Persistence("count posts", err)
	}
	roots, err := s.threads.FindTopLevel(ctx, page.Skip(), page.Limit())
	if err != nil {
		return PostsPage{}, apperr.Persistence("find posts", err)
	}
	posts, err := s.tree.Populate(ctx, roots, 1)
	if err != nil {
		return PostsPage{}, apperr.Persistence("populate posts", err)
	}

	return PostsPage{Posts: posts, IsNext: paging.IsNext(total, page.Skip(), len(posts))}, nil
}

// FetchThreadByID returns one thread populated depth levels deep. A negative
// depth selects the configured default; larger values are clamped to the
// configured maximum.
func (s *Service) FetchThreadByID(ctx context.Context, id string, depth int) (models.ThreadNode, error) {
	return s.fetchTree(ctx, id, s.ClampDepth(depth))
}

// FetchThreadTree is FetchThreadByID without the depth cap, for operators.
// A negative depth resolves the whole tree.
func (s *Service) FetchThreadTree(ctx context.Context, id string, depth int) (models.ThreadNode, error) {
	if depth < 0 {
		depth = int(^uint(0) >> 1)
	}
	return s.fetchTree(ctx, id, depth)
}

// ClampDepth maps a requested depth into [0, MaxDepth], with negative
// values meaning the default.
func (s *Service) ClampDepth(depth int) int {
	switch {
	case depth < 0:
		return s.cfg.DefaultDepth
	case depth > s.cfg.MaxDepth:
		return s.cfg.MaxDepth
	default:
		return depth
	}
}

func (s *Service) fetchTree(ctx context.Context, id string, depth int) (models.ThreadNode, error) {
	threadID, err := parseID("thread id", id)
	if err != nil {
		return models.ThreadNode{}, err
	}
	th, err := s.threads.GetByID(ctx, threadID)
	if err != nil {
		return models.ThreadNode{}, apperr.Persistence("load thread", err)
	}
	node, err := s.tree.PopulateOne(ctx, th, depth)
	if err != nil {
		return models.ThreadNode{}, apperr.Persistence("populate thread", err)
	}
	return node, nil
}

// UserPosts is a user with the threads they posted.
type UserPosts struct {
	User    models.User         `json:"user"`
	Threads []models.ThreadNode `json:"threads"`
}

// FetchUserPosts loads the user with externalID and their threads, each with
// its children and the children's authors, in the order the user posted them.
func (s *Service) FetchUserPosts(ctx context.Context, externalID string) (UserPosts, error) {
	if externalID == "" {
		return UserPosts{}, apperr.Invalid("user id is required")
	}
	u, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return UserPosts{}, apperr.Persistence("load user", err)
	}

	found, err := s.threads.GetByIDs(ctx, u.Threads)
	if err != nil {
		return UserPosts{}, apperr.Persistence("load user threads", err)
	}
	byID := make(map[primitive.ObjectID]models.Thread, len(found))
	for _, th := range found {
		byID[th.ID] = th
	}
	ordered := make([]models.Thread, 0, len(found))
	for _, id := range u.Threads {
		if th, ok := byID[id]; ok {
			ordered = append(ordered, th)
		}
	}

	threads, err := s.tree.Populate(ctx, ordered, 1)
	if err != nil {
		return UserPosts{}, apperr.Persistence("populate user threads", err)
	}
	return UserPosts{User: u, Threads: threads}, nil
}

func parseID(what, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid("%s %q is not a valid id", what, hex)
	}
	return id, nil
}
