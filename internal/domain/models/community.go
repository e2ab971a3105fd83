// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community mirrors an identity-provider organization. It is created,
// updated and deleted only by webhook events keyed on OrgID.
type Community struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	OrgID               string               `bson:"org_id" json:"id"` // provider org id, immutable
	Name                string               `bson:"name" json:"name"`
	Slug                string               `bson:"slug" json:"slug"`
	Image               string               `bson:"image,omitempty" json:"image,omitempty"`
	Bio                 string               `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedBy           *primitive.ObjectID  `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedByExternalID string               `bson:"created_by_external_id,omitempty" json:"created_by_external_id,omitempty"`
	Members             []primitive.ObjectID `bson:"members" json:"members"`
	Threads             []primitive.ObjectID `bson:"threads" json:"threads"`
	CreatedAt           time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time            `bson:"updated_at" json:"updated_at"`
}
