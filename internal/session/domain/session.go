package domain

import "time"

// Session represents a signed-in dashboard session.
type Session struct {
	ID         string
	UserID     string
	RefreshJti string // current refresh token jti for rotation; empty if not set
	ExpiresAt  time.Time
	RevokedAt  *time.Time // nil when not revoked
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Live reports whether the session can still be refreshed at the given time.
func (s *Session) Live(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
