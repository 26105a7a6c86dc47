package core

import (
	"context"
	"errors"
)

var (
	ErrProviderExchange = errors.New("provider token exchange failed")
	ErrProviderProfile  = errors.New("provider profile request failed")
)

type AuthProvider interface {
	// ExchangeCode trades a one-time authorization code for provider
	// tokens. Codes are single-use; the provider rejects replays.
	ExchangeCode(ctx context.Context, code string) (*OAuthTokens, error)

	// GetProfile fetches the external identity for an access token.
	GetProfile(ctx context.Context, accessToken string) (*ProviderProfile, error)

	// AuthorizeURL builds the user-facing authorization URL for one
	// attempt, carrying the given state nonce.
	AuthorizeURL(state string) string
}
