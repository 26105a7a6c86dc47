package providers

import (
	"context"
	"net/url"

	"drinkd/core"
)

// Predefined test authorization codes
const (
	ValidCode1 = "mock_auth_code_1"
	ValidCode2 = "mock_auth_code_2"
	ValidCode3 = "mock_auth_code_3"
)

// Predefined test OAuth tokens
var (
	Tokens1 = &core.OAuthTokens{
		AccessToken: "mock_access_token_1",
		ExpiresIn:   3600,
	}

	Tokens2 = &core.OAuthTokens{
		AccessToken: "mock_access_token_2",
		ExpiresIn:   3600,
	}

	Tokens3 = &core.OAuthTokens{
		AccessToken: "mock_access_token_3",
		ExpiresIn:   3600,
	}
)

// Predefined test profiles
var (
	Profile1 = &core.ProviderProfile{
		ProviderUserID: "mock_user_1",
		DisplayName:    "Mock User One",
	}

	Profile2 = &core.ProviderProfile{
		ProviderUserID: "mock_user_2",
		DisplayName:    "Mock User Two",
	}

	Profile3 = &core.ProviderProfile{
		ProviderUserID: "mock_user_3",
		DisplayName:    "Mock User Three",
	}
)

// MockProvider is a test implementation of AuthProvider
type MockProvider struct {
	codeToTokens    map[string]*core.OAuthTokens
	accessToProfile map[string]*core.ProviderProfile

	// track method calls for verification
	ExchangeCodeCalls int
	GetProfileCalls   int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		codeToTokens: map[string]*core.OAuthTokens{
			ValidCode1: Tokens1,
			ValidCode2: Tokens2,
			ValidCode3: Tokens3,
		},

		accessToProfile: map[string]*core.ProviderProfile{
			Tokens1.AccessToken: Profile1,
			Tokens2.AccessToken: Profile2,
			Tokens3.AccessToken: Profile3,
		},
	}
}

// AddCode registers an extra code/profile pair for scenario tests.
func (m *MockProvider) AddCode(code, accessToken string, profile *core.ProviderProfile) {
	m.codeToTokens[code] = &core.OAuthTokens{AccessToken: accessToken, ExpiresIn: 3600}
	m.accessToProfile[accessToken] = profile
}

func (m *MockProvider) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", "mock_client")
	params.Set("redirect_uri", "http://localhost:3000/auth/kakao/callback")
	params.Set("response_type", "code")
	if state != "" {
		params.Set("state", state)
	}
	return "https://auth.mock.test/oauth/authorize?" + params.Encode()
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code string) (*core.OAuthTokens, error) {
	m.ExchangeCodeCalls++

	tokens, ok := m.codeToTokens[code]
	if !ok {
		return nil, core.ErrProviderExchange
	}

	// Single use: a replayed code is rejected like the real provider does.
	delete(m.codeToTokens, code)

	return tokens, nil
}

func (m *MockProvider) GetProfile(ctx context.Context, accessToken string) (*core.ProviderProfile, error) {
	m.GetProfileCalls++

	profile, ok := m.accessToProfile[accessToken]
	if !ok {
		return nil, core.ErrProviderProfile
	}

	return profile, nil
}
