package auth

import "strings"

const bearerPrefix = "Bearer "

// ExtractBearer returns the bearer token from an Authorization header value.
// The scheme prefix is matched case-sensitively and the remainder is
// whitespace-trimmed; ok is false for absent headers, other schemes, and
// headers with an empty token.
func ExtractBearer(header string) (token string, ok bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token = strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
