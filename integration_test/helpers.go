package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"drinkd/core"
	"drinkd/core/providers"
	"drinkd/storage"
)

const testJWTSecret = "integration-test-secret"

// testEnv wires a real server: sqlite repository, Kakao provider
// pointed at the mock, and the full HTTP surface.
type testEnv struct {
	Kakao  *MockKakaoServer
	Server *httptest.Server
	Repo   *storage.SQLiteRepository
	Config *core.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	kakao := NewMockKakaoServer()
	t.Cleanup(kakao.Close)

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	config := &core.Config{
		JWTSecret:            testJWTSecret,
		SessionTokenDuration: 1800,
		UpstreamTimeout:      5,
	}

	provider := providers.NewKakaoProvider(&providers.KakaoConfig{
		ClientID:    "integration_client",
		RedirectURI: "http://localhost:3000/auth/kakao/callback",
		AuthBaseURL: kakao.URL(),
		APIBaseURL:  kakao.URL(),
	})

	authService := core.NewAuthService(repo, config, provider, zerolog.Nop())
	t.Cleanup(authService.Close)

	server := httptest.NewServer(core.NewServer(authService, repo, config, zerolog.Nop()).Routes())
	t.Cleanup(server.Close)

	return &testEnv{
		Kakao:  kakao,
		Server: server,
		Repo:   repo,
		Config: config,
	}
}

func (e *testEnv) exchangeCode(t *testing.T, code string) *http.Response {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"code": code})
	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Post(e.Server.URL+"/auth", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) getUser(t *testing.T, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest("GET", e.Server.URL+"/user", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) updateProfile(t *testing.T, token string, update map[string]interface{}) *http.Response {
	t.Helper()

	body, _ := json.Marshal(update)
	req, err := http.NewRequest("PUT", e.Server.URL+"/user", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeToken(t *testing.T, resp *http.Response) string {
	t.Helper()

	var token string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	resp.Body.Close()
	require.NotEmpty(t, token)
	return token
}

func completeProfile() map[string]interface{} {
	return map[string]interface{}{
		"height":            170.0,
		"weight":            60.5,
		"age":               24,
		"sex":               "F",
		"activity_level":    2,
		"sugar_limit_grams": 25.0,
	}
}
