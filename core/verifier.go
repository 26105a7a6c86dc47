package core

import (
	"errors"
	"strings"
)

// ErrMissingOrMalformedHeader means the Authorization header is absent
// or not of the form "Bearer <token>". Mapped to 403 on the wire;
// signature and payload failures map to 401.
var ErrMissingOrMalformedHeader = errors.New("authorization header missing or malformed")

// VerifyAuthorization is the whole session verifier: a pure function of
// (secret, Authorization header) to the acting user id. It never
// consults storage; a still-valid token for a deleted user verifies
// until it expires.
func VerifyAuthorization(secret, authorizationHeader string) (string, error) {
	if authorizationHeader == "" {
		return "", ErrMissingOrMalformedHeader
	}

	parts := strings.Split(authorizationHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingOrMalformedHeader
	}

	identity, err := ParseSessionToken(parts[1], secret)
	if err != nil {
		return "", ErrInvalidToken
	}

	return identity.UID, nil
}
