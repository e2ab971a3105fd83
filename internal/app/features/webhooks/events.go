package webhooks

import (
	"encoding/json"
	"fmt"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
)

// Event types sent by the identity provider.
const (
	TypeOrganizationCreated           = "organization.created"
	TypeOrganizationUpdated           = "organization.updated"
	TypeOrganizationDeleted           = "organization.deleted"
	TypeOrganizationInvitationCreated = "organizationInvitation.created"
	TypeMembershipCreated             = "organizationMembership.created"
	TypeMembershipDeleted             = "organizationMembership.deleted"
)

// envelope is the outer shape of every delivery.
type envelope struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// event is one decoded, validated payload variant.
type event interface {
	validate() error
	orgID() string
}

type organizationCreated struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	LogoURL   string `json:"logo_url"`
	ImageURL  string `json:"image_url"`
	CreatedBy string `json:"created_by"`
}

func (e *organizationCreated) validate() error {
	if e.ID == "" || e.Name == "" {
		return apperr.Invalid("organization.created requires id and name")
	}
	return nil
}

func (e *organizationCreated) orgID() string { return e.ID }

// image prefers the logo and falls back to the generic image.
func (e *organizationCreated) image() string {
	if e.LogoURL != "" {
		return e.LogoURL
	}
	return e.ImageURL
}

type organizationUpdated struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	LogoURL string `json:"logo_url"`
}

func (e *organizationUpdated) validate() error {
	if e.ID == "" {
		return apperr.Invalid("organization.updated requires id")
	}
	return nil
}

func (e *organizationUpdated) orgID() string { return e.ID }

type organizationDeleted struct {
	ID string `json:"id"`
}

func (e *organizationDeleted) validate() error {
	if e.ID == "" {
		return apperr.Invalid("organization.deleted requires id")
	}
	return nil
}

func (e *organizationDeleted) orgID() string { return e.ID }

// invitationCreated is acknowledged only. The organization id is kept for
// the audit trail.
type invitationCreated struct {
	ID             string `json:"id"`
	EmailAddress   string `json:"email_address"`
	OrganizationID string `json:"organization_id"`
}

func (e *invitationCreated) validate() error { return nil }

func (e *invitationCreated) orgID() string { return e.OrganizationID }

// membership is the data of both membership events.
type membership struct {
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

func (e *membership) validate() error {
	if e.Organization.ID == "" || e.PublicUserData.UserID == "" {
		return apperr.Invalid("membership event requires organization.id and public_user_data.user_id")
	}
	return nil
}

func (e *membership) orgID() string { return e.Organization.ID }

type membershipCreated struct{ membership }

type membershipDeleted struct{ membership }

// decode parses a verified body. Unknown types return a nil event and no
// error; recognized types with missing fields return ErrInvalidInput.
func decode(body []byte) (string, event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", nil, apperr.Invalid("malformed payload: %v", err)
	}

	var ev event
	switch env.Type {
	case TypeOrganizationCreated:
		ev = &organizationCreated{}
	case TypeOrganizationUpdated:
		ev = &organizationUpdated{}
	case TypeOrganizationDeleted:
		ev = &organizationDeleted{}
	case TypeOrganizationInvitationCreated:
		ev = &invitationCreated{}
	case TypeMembershipCreated:
		ev = &membershipCreated{}
	case TypeMembershipDeleted:
		ev = &membershipDeleted{}
	default:
		return env.Type, nil, nil
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return env.Type, nil, apperr.Invalid("%s: missing data", env.Type)
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return env.Type, nil, apperr.Invalid("%s: %v", env.Type, err)
	}
	if err := ev.validate(); err != nil {
		return env.Type, nil, fmt.Errorf("%s: %w", env.Type, err)
	}
	return env.Type, ev, nil
}
