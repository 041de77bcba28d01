package domain

import (
	"errors"
	"time"
)

// Profile is the application-level user record, distinct from the account row
// used for credentials. ID always equals the owning account's id.
type Profile struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the profile for persistence. Returns an error describing the first validation failure.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if len(p.Username) < 3 || len(p.Username) > 50 {
		return errors.New("username must be 3-50 characters")
	}
	return nil
}

// HasRole reports whether role is a member of the profile's role set.
func (p *Profile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
