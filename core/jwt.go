package core

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// IdentityClaim is the single identity entry embedded in a session token.
type IdentityClaim struct {
	UID  string `json:"u_id"`
	Name string `json:"u_name"`
}

// UserIDClaim keeps the legacy wire shape {"userId":[{"u_id":..,"u_name":..}]}
// issued to existing clients. Decoding also accepts a plain object so
// tokens reissued without the array wrapper stay verifiable.
type UserIDClaim []IdentityClaim

func (c *UserIDClaim) UnmarshalJSON(data []byte) error {
	var entries []IdentityClaim
	if err := json.Unmarshal(data, &entries); err == nil {
		*c = entries
		return nil
	}

	var single IdentityClaim
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*c = UserIDClaim{single}
	return nil
}

type SessionClaims struct {
	UserID UserIDClaim `json:"userId"`
	jwt.RegisteredClaims
}

// Identity returns the embedded identity, or false if the claim payload
// does not carry a usable userId[0].u_id.
func (c *SessionClaims) Identity() (IdentityClaim, bool) {
	if len(c.UserID) == 0 || c.UserID[0].UID == "" {
		return IdentityClaim{}, false
	}
	return c.UserID[0], true
}

func IssueSessionToken(user *User, config *Config) (string, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(config.SessionTokenDuration) * time.Second)

	claims := &SessionClaims{
		UserID: UserIDClaim{{UID: user.UID, Name: user.Name}},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(config.JWTSecret))
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

// ParseSessionToken verifies the signature and expiry of a session token
// and extracts the embedded identity.
func ParseSessionToken(tokenString, secret string) (IdentityClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return IdentityClaim{}, ErrExpiredToken
		}
		return IdentityClaim{}, ErrInvalidToken
	}

	if !token.Valid {
		return IdentityClaim{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return IdentityClaim{}, ErrInvalidToken
	}

	identity, ok := claims.Identity()
	if !ok {
		return IdentityClaim{}, ErrInvalidToken
	}

	return identity, nil
}
