package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

type kakaoAccount struct {
	ID       int64
	Nickname string
}

// Codes the mock provider accepts, each mapped to a Kakao account.
var kakaoAccounts = map[string]kakaoAccount{
	"abc123":       {ID: 42, Nickname: "Kim"},
	"second_login": {ID: 42, Nickname: "Kim"},
	"other_user":   {ID: 77, Nickname: "Lee"},
}

// MockKakaoServer imitates the two provider endpoints the exchange
// touches: the token endpoint and the user endpoint. Codes are single
// use, like the real thing.
type MockKakaoServer struct {
	server *httptest.Server

	mu           sync.Mutex
	usedCodes    map[string]bool
	accessTokens map[string]kakaoAccount
}

func NewMockKakaoServer() *MockKakaoServer {
	m := &MockKakaoServer{
		usedCodes:    make(map[string]bool),
		accessTokens: make(map[string]kakaoAccount),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", m.handleToken)
	mux.HandleFunc("/v2/user/me", m.handleUser)

	m.server = httptest.NewServer(mux)
	return m
}

func (m *MockKakaoServer) URL() string {
	return m.server.URL
}

func (m *MockKakaoServer) Close() {
	m.server.Close()
}

func (m *MockKakaoServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	code := r.PostFormValue("code")

	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := kakaoAccounts[code]
	if !ok || m.usedCodes[code] {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "authorization code not found or already used",
		})
		return
	}

	m.usedCodes[code] = true
	accessToken := "kakao_at_" + code
	m.accessTokens[accessToken] = account

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   21599,
	})
}

func (m *MockKakaoServer) handleUser(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if len(auth) < len("Bearer ") {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	m.mu.Lock()
	account, ok := m.accessTokens[auth[len("Bearer "):]]
	m.mu.Unlock()

	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id": account.ID,
		"properties": map[string]string{
			"nickname": account.Nickname,
		},
	})
}
