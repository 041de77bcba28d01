package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for every verification failure: bad signature,
	// wrong algorithm, expiry, issuer/audience mismatch, or missing subject.
	// Callers must not branch on the underlying reason.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenKind selects the lifetime of an issued token.
type TokenKind string

const (
	// TokenKindAccess is a short-lived token for request authentication.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is a long-lived token for session renewal.
	TokenKindRefresh TokenKind = "refresh"
)

// SessionClaims holds JWT claims for PolicySonar session tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// TokenPayload is the verified view of a session token.
type TokenPayload struct {
	UserID    string
	Role      string
	SessionID string
	ID        string // jti; set on refresh tokens, empty otherwise
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenProvider issues and verifies HMAC-SHA256 session tokens with fixed
// issuer and audience claims.
type TokenProvider struct {
	secret     []byte
	issuer     string
	audience   []string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given shared secret.
// issuer and audience are set on every token and checked on verification.
func NewTokenProvider(secret []byte, issuer string, audience []string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue signs a token of the given kind for the user. role and sessionID may be
// empty and are then omitted from the claims. Returns the signed string and its
// expiry time.
func (p *TokenProvider) Issue(userID, role, sessionID string, kind TokenKind) (token string, expiresAt time.Time, err error) {
	return p.issue(userID, role, sessionID, "", kind)
}

// IssueRefresh signs a refresh token carrying jti as its ID claim. The session
// store keeps the current jti so a rotated-away token can be recognized.
func (p *TokenProvider) IssueRefresh(userID, role, sessionID, jti string) (token string, expiresAt time.Time, err error) {
	return p.issue(userID, role, sessionID, jti, TokenKindRefresh)
}

func (p *TokenProvider) issue(userID, role, sessionID, jti string, kind TokenKind) (token string, expiresAt time.Time, err error) {
	ttl := p.accessTTL
	if kind == TokenKindRefresh {
		ttl = p.refreshTTL
	}
	now := time.Now().UTC()
	expiresAt = now.Add(ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings(p.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      role,
		SessionID: sessionID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	return token, expiresAt, err
}

// Verify parses and validates the token (signature, exp, iss, aud, subject).
// Every failure surfaces as ErrInvalidToken.
func (p *TokenProvider) Verify(tokenString string) (*TokenPayload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		for _, want := range p.audience {
			if a == want {
				audOk = true
				break
			}
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return payloadFromClaims(claims), nil
}

// DecodeUnverified structurally decodes the token without checking the
// signature or any claim. Returns nil on malformed input; never returns an
// error. Only for paths where cryptographic validity is not required.
func (p *TokenProvider) DecodeUnverified(tokenString string) *TokenPayload {
	claims := &SessionClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return payloadFromClaims(claims)
}

func payloadFromClaims(claims *SessionClaims) *TokenPayload {
	out := &TokenPayload{
		UserID:    claims.Subject,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		ID:        claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}
