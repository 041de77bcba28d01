package auth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	accountdomain "policysonar/backend/internal/account/domain"
	profiledomain "policysonar/backend/internal/profile/domain"
	"policysonar/backend/internal/security"
	sessiondomain "policysonar/backend/internal/session/domain"
	"policysonar/backend/internal/telemetry"
)

// Sentinel errors for the account service; the handler maps them to HTTP statuses.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUsernameTaken          = errors.New("username already taken")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrValidation             = errors.New("validation failed")
)

// Roles accepted at registration; analyst is the default.
const (
	RoleAnalyst     = "analyst"
	RolePolicymaker = "policymaker"
	RoleAdmin       = "admin"
)

// TokenPair holds the outcome of Login and Refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	UserID           string
	SessionID        string
}

// AccountRepo is the minimal account repository needed by the service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
}

// ProfileRepo is the minimal profile repository needed by the service.
type ProfileRepo interface {
	GetByID(ctx context.Context, id string) (*profiledomain.Profile, error)
	GetByUsername(ctx context.Context, username string) (*profiledomain.Profile, error)
	Create(ctx context.Context, p *profiledomain.Profile) error
}

// SessionRepo is the minimal session repository needed by the service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	UpdateRefreshJti(ctx context.Context, sessionID, jti string) error
	Revoke(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}

// Service implements password register, login, refresh, and logout for the dashboard.
type Service struct {
	accounts   AccountRepo
	profiles   ProfileRepo
	sessions   SessionRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	refreshTTL time.Duration
	events     telemetry.EventEmitter
}

// NewService returns a Service with the given dependencies. events may be nil.
func NewService(accounts AccountRepo, profiles ProfileRepo, sessions SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider, refreshTTL time.Duration, events telemetry.EventEmitter) *Service {
	return &Service{
		accounts:   accounts,
		profiles:   profiles,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		events:     events,
	}
}

// Register creates an account and its profile. role defaults to analyst.
// Returns the new user id.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if role == "" {
		role = RoleAnalyst
	}
	if err := validateRegistration(username, email, password, role); err != nil {
		return "", err
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailAlreadyRegistered
	}
	taken, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if taken != nil {
		return "", ErrUsernameTaken
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	account := &accountdomain.Account{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return "", err
	}
	profile := &profiledomain.Profile{
		ID:        id,
		Username:  username,
		Roles:     []string{role},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return "", err
	}
	telemetry.EmitAsync(s.events, telemetry.Event{
		UserID: id,
		Action: "auth.register",
		Detail: "registered as " + role,
		At:     now,
	})
	return id, nil
}

// Login verifies the credentials and opens a session, issuing an access and a
// refresh token. Unknown email, wrong password, and disabled accounts all
// surface as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := ""
	if profile, err := s.profiles.GetByID(ctx, account.ID); err == nil && profile != nil && len(profile.Roles) > 0 {
		role = profile.Roles[0]
	}

	now := time.Now().UTC()
	session := &sessiondomain.Session{
		ID:         uuid.NewString(),
		UserID:     account.ID,
		ExpiresAt:  now.Add(s.refreshTTL),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	pair, err := s.openSession(ctx, session, account.ID, role, true)
	if err != nil {
		return nil, err
	}
	telemetry.EmitAsync(s.events, telemetry.Event{
		UserID:    account.ID,
		SessionID: session.ID,
		Action:    "auth.login",
		At:        now,
	})
	return pair, nil
}

// Refresh validates the refresh token against its session and rotates the pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	payload, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if payload.SessionID == "" {
		return nil, ErrInvalidRefreshToken
	}
	session, err := s.sessions.GetByID(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !session.Live(now) {
		return nil, ErrInvalidRefreshToken
	}
	if session.UserID != payload.UserID {
		return nil, ErrInvalidRefreshToken
	}
	if payload.ID == "" || payload.ID != session.RefreshJti {
		// A rotated-away refresh token was presented again; revoke the session.
		_ = s.sessions.Revoke(ctx, session.ID)
		return nil, ErrInvalidRefreshToken
	}
	_ = s.sessions.UpdateLastSeen(ctx, session.ID, now)
	return s.openSession(ctx, session, payload.UserID, payload.Role, false)
}

// Logout revokes the session. Revoking an unknown or already-revoked session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	telemetry.EmitAsync(s.events, telemetry.Event{
		SessionID: sessionID,
		Action:    "auth.logout",
		At:        time.Now().UTC(),
	})
	return nil
}

func (s *Service) openSession(ctx context.Context, session *sessiondomain.Session, userID, role string, create bool) (*TokenPair, error) {
	access, accessExp, err := s.tokens.Issue(userID, role, session.ID, security.TokenKindAccess)
	if err != nil {
		return nil, err
	}
	jti := uuid.NewString()
	refresh, refreshExp, err := s.tokens.IssueRefresh(userID, role, session.ID, jti)
	if err != nil {
		return nil, err
	}
	if create {
		session.RefreshJti = jti
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, err
		}
	} else if err := s.sessions.UpdateRefreshJti(ctx, session.ID, jti); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		UserID:           userID,
		SessionID:        session.ID,
	}, nil
}

func validateRegistration(username, email, password, role string) error {
	if len(username) < 3 || len(username) > 50 {
		return errors.Join(ErrValidation, errors.New("username must be 3-50 characters"))
	}
	if !strings.Contains(email, "@") {
		return errors.Join(ErrValidation, errors.New("email is invalid"))
	}
	if err := validatePassword(password); err != nil {
		return errors.Join(ErrValidation, err)
	}
	switch role {
	case RoleAnalyst, RolePolicymaker, RoleAdmin:
	default:
		return errors.Join(ErrValidation, errors.New("role must be analyst, policymaker, or admin"))
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	return nil
}
