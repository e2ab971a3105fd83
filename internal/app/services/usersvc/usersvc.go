// Package usersvc implements profile upserts, the user directory and the
// activity feed.
package usersvc

import (
	"context"

	"github.com/dalemusser/threadhub/internal/app/store/queries/threadtree"
	threadstore "github.com/dalemusser/threadhub/internal/app/store/threads"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/paging"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultProfileEditPath is the page whose edits trigger revalidation.
const DefaultProfileEditPath = "/profile/edit"

// ErrDuplicateUsername is returned by UpdateUser when the username belongs to
// someone else.
var ErrDuplicateUsername = userstore.ErrDuplicateUsername

type Service struct {
	users           *userstore.Store
	threads         *threadstore.Store
	tree            *threadtree.Loader
	profileEditPath string
	log             *zap.Logger
}

// New builds the service over db. An empty profileEditPath selects
// DefaultProfileEditPath.
func New(db *mongo.Database, profileEditPath string, logger *zap.Logger) *Service {
	if profileEditPath == "" {
		profileEditPath = DefaultProfileEditPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:           userstore.New(db),
		threads:         threadstore.New(db),
		tree:            threadtree.New(db),
		profileEditPath: profileEditPath,
		log:             logger,
	}
}

// UpdateUserInput is a profile submission.
type UpdateUserInput struct {
	UserID   string // provider user id
	Username string
	Name     string
	Bio      string
	Image    string
	Path     string
}

// UpdateUser upserts the profile for UserID and marks it onboarded.
// Revalidate is set only when Path is the profile edit page.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserInput) (models.Mutation, error) {
	if in.UserID == "" {
		return models.Mutation{}, apperr.Invalid("user id is required")
	}
	username := normalize.Username(in.Username)
	if username == "" {
		return models.Mutation{}, apperr.Invalid("username is required")
	}
	name := normalize.Name(htmlsanitize.Text(in.Name))
	if name == "" {
		return models.Mutation{}, apperr.Invalid("name is required")
	}

	u, err := s.users.Upsert(ctx, userstore.Profile{
		ExternalID: in.UserID,
		Username:   username,
		Name:       name,
		Bio:        htmlsanitize.Bio(in.Bio),
		Image:      in.Image,
	})
	if err != nil {
		return models.Mutation{}, apperr.Persistence("upsert user", err)
	}

	s.log.Debug("user updated", zap.String("user_id", in.UserID), zap.String("username", username))

	mut := models.Mutation{ID: u.ID.Hex()}
	if in.Path == s.profileEditPath {
		mut.Revalidate = in.Path
	}
	return mut, nil
}

// FetchUser loads a user by provider id.
func (s *Service) FetchUser(ctx context.Context, externalID string) (models.User, error) {
	if externalID == "" {
		return models.User{}, apperr.Invalid("user id is required")
	}
	u, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return models.User{}, apperr.Persistence("load user", err)
	}
	return u, nil
}

// FetchUsersInput selects a page of the directory.
type FetchUsersInput struct {
	UserID string // excluded from results
	Search string
	Page   paging.Page
	SortBy string // "asc" or "desc" by creation time
}

// UsersPage is one page of the directory.
type UsersPage struct {
	Users  []models.User `json:"users"`
	IsNext bool          `json:"isNext"`
}

// FetchUsers lists users other than UserID, optionally filtered by a
// case-insensitive substring of username or name.
func (s *Service) FetchUsers(ctx context.Context, in FetchUsersInput) (UsersPage, error) {
	if err := in.Page.Validate(); err != nil {
		return UsersPage{}, err
	}

	users, total, err := s.users.List(ctx, userstore.ListFilter{
		ExcludeExternalID: in.UserID,
		Search:            normalize.QueryParam(in.Search),
		Sort:              normalize.SortOrder(in.SortBy),
		Skip:              in.Page.Skip(),
		Limit:             in.Page.Limit(),
	})
	if err != nil {
		return UsersPage{}, apperr.Persistence("list users", err)
	}
	return UsersPage{Users: users, IsNext: paging.IsNext(total, in.Page.Skip(), len(users))}, nil
}

// GetActivity returns replies other users left on userID's threads, each
// with its author, in store order. userID is the user's ObjectID hex.
func (s *Service) GetActivity(ctx context.Context, userID string) ([]models.ThreadNode, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Invalid("user id %q is not a valid id", userID)
	}

	own, err := s.threads.FindByAuthor(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("find user threads", err)
	}

	seen := make(map[primitive.ObjectID]bool)
	var childIDs []primitive.ObjectID
	for _, th := range own {
		for _, c := range th.Children {
			if !seen[c] {
				seen[c] = true
				childIDs = append(childIDs, c)
			}
		}
	}

	replies, err := s.threads.FindRepliesExcludingAuthor(ctx, childIDs, id)
	if err != nil {
		return nil, apperr.Persistence("find replies", err)
	}
	nodes, err := s.tree.Populate(ctx, replies, 0)
	if err != nil {
		return nil, apperr.Persistence("populate replies", err)
	}
	return nodes, nil
}
