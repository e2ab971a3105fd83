// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - UserID / userID / _id: The MongoDB ObjectID that other documents reference
//   - ExternalID / external_id: The identity provider's user id (immutable, unique)

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a profile synced from the identity provider and completed during onboarding.
//
// NOTE:
//   - Threads and Communities are weak references; a dangling id is tolerated
//     by every reader and treated as absent.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ExternalID string             `bson:"external_id" json:"id"`
	Username   string             `bson:"username" json:"username"` // always lowercase
	Name       string             `bson:"name" json:"name"`
	Bio        string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Onboarded  bool               `bson:"onboarded" json:"onboarded"`

	Threads     []primitive.ObjectID `bson:"threads" json:"threads"`
	Communities []primitive.ObjectID `bson:"communities" json:"communities"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
