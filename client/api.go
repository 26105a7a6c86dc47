package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"drinkd/core"

	"github.com/rs/zerolog"
)

var (
	ErrExchangeRejected = errors.New("server rejected authorization code")
	ErrUserNotFound     = errors.New("user not found")
)

// API is the HTTP client for the backend auth endpoints.
type API struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewAPI(baseURL string, timeout time.Duration, logger zerolog.Logger) *API {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &API{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ExchangeCode posts the authorization code to POST /auth and returns
// the session token. The response is validated here so a malformed
// token is never handed to the store.
func (a *API) ExchangeCode(ctx context.Context, code string) (string, error) {
	body, _ := json.Marshal(map[string]string{"code": code})

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/auth", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		a.logger.Warn().Int("status", resp.StatusCode).Bytes("body", respBody).Msg("code exchange rejected")
		return "", fmt.Errorf("%w: status %d", ErrExchangeRejected, resp.StatusCode)
	}

	var token string
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: malformed response body", ErrExchangeRejected)
	}
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrExchangeRejected)
	}

	return token, nil
}

// UserExists asks GET /auth/info whether a user row exists for uid.
func (a *API) UserExists(ctx context.Context, uid string) (bool, error) {
	query := url.Values{}
	query.Set("user_id", uid)

	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/auth/info?"+query.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("user lookup failed: %w", err)
	}
	defer resp.Body.Close()

	// The legacy backend answered 201 here; accept both.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, fmt.Errorf("user lookup failed: status %d", resp.StatusCode)
	}

	var payload struct {
		Result []struct {
			UID string `json:"u_id"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("user lookup failed: %w", err)
	}

	return len(payload.Result) > 0, nil
}

// FetchUser reads the acting user's own row via GET /user.
func (a *API) FetchUser(ctx context.Context, token string) (*core.User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("user fetch failed: status %d", resp.StatusCode)
	}

	var user core.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("user fetch failed: %w", err)
	}

	return &user, nil
}

// UpdateProfile submits the profile-completion form via PUT /user.
func (a *API) UpdateProfile(ctx context.Context, token string, update core.ProfileUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", a.baseURL+"/user", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile update failed: status %d", resp.StatusCode)
	}

	return nil
}
