package auth

import (
	"context"
	"errors"

	profiledomain "policysonar/backend/internal/profile/domain"
	"policysonar/backend/internal/security"
)

// Sentinel errors for the request auth flow; the handler maps them to HTTP statuses.
var (
	// ErrMissingToken means the Authorization header was absent or malformed.
	ErrMissingToken = errors.New("authorization token required")
	// ErrProfileUnavailable collapses "no profile row" and "lookup failed" into
	// one kind so callers cannot distinguish a miss from a store error.
	ErrProfileUnavailable = errors.New("user profile not found")
)

// UserView is the minimal user shape returned to the dashboard.
type UserView struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Avatar   string   `json:"avatar"`
	Roles    []string `json:"roles"`
}

// AuthView is the request-scoped authentication result. Not persisted.
type AuthView struct {
	User    UserView `json:"user"`
	Session string   `json:"session,omitempty"`
}

// ProfileGetter is the minimal profile repository needed by the loader.
type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (*profiledomain.Profile, error)
}

// Loader resolves an Authorization header into an AuthView: extract bearer,
// verify token, look up the profile, assemble the view. One external read, no
// writes, no retries.
type Loader struct {
	tokens   *security.TokenProvider
	profiles ProfileGetter
}

// NewLoader returns a Loader with the given dependencies.
func NewLoader(tokens *security.TokenProvider, profiles ProfileGetter) *Loader {
	return &Loader{tokens: tokens, profiles: profiles}
}

// Load runs the auth flow for the raw Authorization header value.
// Terminal outcomes: (view, nil) on success; ErrMissingToken when no bearer is
// present; security.ErrInvalidToken (wrapped with detail) on verification
// failure; ErrProfileUnavailable when the profile cannot be resolved.
func (l *Loader) Load(ctx context.Context, authorizationHeader string) (*AuthView, error) {
	token, ok := ExtractBearer(authorizationHeader)
	if !ok {
		return nil, ErrMissingToken
	}

	payload, err := l.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	profile, err := l.profiles.GetByID(ctx, payload.UserID)
	if err != nil || profile == nil {
		return nil, ErrProfileUnavailable
	}

	roles := profile.Roles
	if roles == nil {
		roles = []string{}
	}
	return &AuthView{
		User: UserView{
			ID: profile.ID,
			// Placeholder address derived from the username; the profile store
			// carries no email column.
			Email:    profile.Username + "@example.com",
			Username: profile.Username,
			Name:     profile.FullName,
			Avatar:   profile.AvatarURL,
			Roles:    roles,
		},
		Session: payload.SessionID,
	}, nil
}
