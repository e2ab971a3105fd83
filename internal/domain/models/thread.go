// internal/domain/models/thread.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Thread is a post. A thread with ParentID set is a comment on the thread it
// names, and the parent lists it in Children. Position in the tree is fixed
// at creation.
type Thread struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Text      string               `bson:"text" json:"text"`
	Author    primitive.ObjectID   `bson:"author" json:"author"`
	Community *primitive.ObjectID  `bson:"community" json:"community"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	ParentID  *string              `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // hex of the parent _id
	Children  []primitive.ObjectID `bson:"children" json:"children"`
}

// IsRoot reports whether t is a top-level thread.
func (t Thread) IsRoot() bool {
	return t.ParentID == nil || *t.ParentID == ""
}
