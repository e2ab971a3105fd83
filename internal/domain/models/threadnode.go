// internal/domain/models/threadnode.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthorRef is the reduced user projection attached to populated threads.
type AuthorRef struct {
	ID         primitive.ObjectID `json:"_id"`
	ExternalID string             `json:"id"`
	Name       string             `json:"name"`
	Image      string             `json:"image,omitempty"`
}

// NewAuthorRef projects u.
func NewAuthorRef(u User) *AuthorRef {
	return &AuthorRef{ID: u.ID, ExternalID: u.ExternalID, Name: u.Name, Image: u.Image}
}

// ThreadNode is a thread with its author and, up to the requested depth,
// its children resolved. Author is nil when the reference dangles.
// ChildCount is the stored number of children, so callers can tell when a
// node has replies beyond the populated depth.
type ThreadNode struct {
	ID         primitive.ObjectID  `json:"_id"`
	Text       string              `json:"text"`
	Author     *AuthorRef          `json:"author"`
	Community  *primitive.ObjectID `json:"community"`
	CreatedAt  time.Time           `json:"created_at"`
	ParentID   *string             `json:"parent_id,omitempty"`
	ChildCount int                 `json:"child_count"`
	Children   []ThreadNode        `json:"children"`
}
