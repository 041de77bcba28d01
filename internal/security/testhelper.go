package security

import "time"

// Test signing secret for unit tests only. Do not use in production.
const testSecret = "policysonar-test-signing-secret"

// NewTestTokenProvider returns a TokenProvider using the embedded test secret.
// For unit tests only. Callers must not use in production.
func NewTestTokenProvider() *TokenProvider {
	return NewTestTokenProviderWithTTL(15*time.Minute, 24*time.Hour)
}

// NewTestTokenProviderWithTTL is NewTestTokenProvider with explicit lifetimes.
// Negative TTLs produce already-expired tokens.
func NewTestTokenProviderWithTTL(accessTTL, refreshTTL time.Duration) *TokenProvider {
	return NewTokenProvider(
		[]byte(testSecret),
		"test-issuer",
		[]string{"test-api", "test-dashboard"},
		accessTTL,
		refreshTTL,
	)
}
