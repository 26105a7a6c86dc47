package core_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drinkd/core"
)

func testConfig() *core.Config {
	return &core.Config{
		JWTSecret:            "test-secret-key-for-testing-purposes-only",
		SessionTokenDuration: 1800,
		UpstreamTimeout:      5,
	}
}

func TestSessionToken_RoundTrip(t *testing.T) {
	config := testConfig()
	user := &core.User{UID: "u42", Name: "Kim"}

	token, err := core.IssueSessionToken(user, config)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := core.ParseSessionToken(token, config.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "u42", identity.UID)
	assert.Equal(t, "Kim", identity.Name)
}

func TestSessionToken_WireShape(t *testing.T) {
	config := testConfig()
	user := &core.User{UID: "u42", Name: "Kim"}

	token, err := core.IssueSessionToken(user, config)
	require.NoError(t, err)

	// Existing clients depend on the array-wrapped payload.
	var claims core.SessionClaims
	_, _, err = jwt.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)
	require.Len(t, claims.UserID, 1)
	assert.Equal(t, "u42", claims.UserID[0].UID)
	assert.Equal(t, "Kim", claims.UserID[0].Name)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(1800*time.Second), claims.ExpiresAt.Time, time.Minute)
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	config := testConfig()
	token, err := core.IssueSessionToken(&core.User{UID: "u42", Name: "Kim"}, config)
	require.NoError(t, err)

	_, err = core.ParseSessionToken(token, "a-different-secret")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestParseSessionToken_Expired(t *testing.T) {
	config := testConfig()
	config.SessionTokenDuration = -60

	token, err := core.IssueSessionToken(&core.User{UID: "u42", Name: "Kim"}, config)
	require.NoError(t, err)

	_, err = core.ParseSessionToken(token, config.JWTSecret)
	assert.ErrorIs(t, err, core.ErrExpiredToken)
}

func TestParseSessionToken_PlainObjectClaimShape(t *testing.T) {
	config := testConfig()

	// Tokens reissued without the array wrapper must still verify.
	claims := jwt.MapClaims{
		"userId": map[string]string{"u_id": "u42", "u_name": "Kim"},
		"exp":    time.Now().Add(time.Hour).Unix(),
		"iat":    time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	require.NoError(t, err)

	identity, err := core.ParseSessionToken(token, config.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "u42", identity.UID)
	assert.Equal(t, "Kim", identity.Name)
}

func TestParseSessionToken_MissingIdentity(t *testing.T) {
	config := testConfig()

	for name, userID := range map[string]interface{}{
		"empty array":  []interface{}{},
		"empty u_id":   []map[string]string{{"u_id": "", "u_name": "Kim"}},
		"absent claim": nil,
	} {
		claims := jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		if userID != nil {
			claims["userId"] = userID
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
		require.NoError(t, err, name)

		_, err = core.ParseSessionToken(token, config.JWTSecret)
		assert.ErrorIs(t, err, core.ErrInvalidToken, name)
	}
}
