package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drinkd/core"
)

func TestVerifyAuthorization_MalformedHeaders(t *testing.T) {
	config := testConfig()

	for name, header := range map[string]string{
		"absent":           "",
		"no scheme":        "some-token",
		"wrong scheme":     "Basic dXNlcjpwYXNz",
		"bearer only":      "Bearer",
		"empty token":      "Bearer ",
		"extra parts":      "Bearer one two",
		"lowercase bearer": "bearer some-token",
	} {
		_, err := core.VerifyAuthorization(config.JWTSecret, header)
		assert.ErrorIs(t, err, core.ErrMissingOrMalformedHeader, name)
	}
}

func TestVerifyAuthorization_InvalidTokens(t *testing.T) {
	config := testConfig()

	otherSecret := &core.Config{JWTSecret: "another-secret", SessionTokenDuration: 1800}
	foreign, err := core.IssueSessionToken(&core.User{UID: "u42", Name: "Kim"}, otherSecret)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"garbage token": "Bearer not.a.jwt",
		"wrong secret":  "Bearer " + foreign,
	} {
		_, err := core.VerifyAuthorization(config.JWTSecret, header)
		assert.ErrorIs(t, err, core.ErrInvalidToken, name)
	}
}

func TestVerifyAuthorization_RoundTrip(t *testing.T) {
	config := testConfig()

	token, err := core.IssueSessionToken(&core.User{UID: "u42", Name: "Kim"}, config)
	require.NoError(t, err)

	uid, err := core.VerifyAuthorization(config.JWTSecret, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "u42", uid)
}
