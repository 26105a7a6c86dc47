package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"drinkd/core"
)

type KakaoConfig struct {
	ClientID     string `yaml:"client_id" env:"DRINKD_KAKAO_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"DRINKD_KAKAO_CLIENT_SECRET"`
	RedirectURI  string `yaml:"redirect_uri" env:"DRINKD_KAKAO_REDIRECT_URI"`
	AuthBaseURL  string `yaml:"auth_base_url"`
	APIBaseURL   string `yaml:"api_base_url"`
}

const (
	defaultAuthBaseURL = "https://kauth.kakao.com"
	defaultAPIBaseURL  = "https://kapi.kakao.com"
)

type KakaoProvider struct {
	config     *KakaoConfig
	httpClient *http.Client
}

func NewKakaoProvider(config *KakaoConfig) *KakaoProvider {
	if config.AuthBaseURL == "" {
		config.AuthBaseURL = defaultAuthBaseURL
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	return &KakaoProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type kakaoTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type kakaoUserResponse struct {
	// Kakao user ids are numeric on the wire.
	ID         json.Number `json:"id"`
	Properties struct {
		Nickname string `json:"nickname"`
	} `json:"properties"`
}

func (k *KakaoProvider) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", k.config.ClientID)
	params.Set("redirect_uri", k.config.RedirectURI)
	params.Set("response_type", "code")
	if state != "" {
		params.Set("state", state)
	}
	return k.config.AuthBaseURL + "/oauth/authorize?" + params.Encode()
}

func (k *KakaoProvider) ExchangeCode(ctx context.Context, code string) (*core.OAuthTokens, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", k.config.ClientID)
	data.Set("redirect_uri", k.config.RedirectURI)
	if k.config.ClientSecret != "" {
		data.Set("client_secret", k.config.ClientSecret)
	}

	tokenURL := k.config.AuthBaseURL + "/oauth/token"
	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		tokenURL,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderExchange, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrProviderExchange, resp.StatusCode, string(body))
	}

	var tokenResp kakaoTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderExchange, err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in response", core.ErrProviderExchange)
	}

	return &core.OAuthTokens{
		AccessToken: tokenResp.AccessToken,
		ExpiresIn:   tokenResp.ExpiresIn,
	}, nil
}

func (k *KakaoProvider) GetProfile(ctx context.Context, accessToken string) (*core.ProviderProfile, error) {
	userURL := k.config.APIBaseURL + "/v2/user/me"

	req, err := http.NewRequestWithContext(ctx, "GET", userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderProfile, err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrProviderProfile, resp.StatusCode, string(body))
	}

	var userResp kakaoUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&userResp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderProfile, err)
	}

	if userResp.ID.String() == "" {
		return nil, fmt.Errorf("%w: response has no user id", core.ErrProviderProfile)
	}

	return &core.ProviderProfile{
		ProviderUserID: userResp.ID.String(),
		DisplayName:    userResp.Properties.Nickname,
	}, nil
}
