package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drinkd/client"
)

const redirectURI = "http://localhost:3000/auth/kakao/callback"

func authorizeURLBuilder(state string) string {
	params := url.Values{}
	params.Set("client_id", "test_client")
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("state", state)
	return "https://kauth.kakao.com/oauth/authorize?" + params.Encode()
}

// exchangeBackend answers POST /auth with a signed token, or a 500 when
// failing is set.
type exchangeBackend struct {
	failing   bool
	token     string
	exchanges atomic.Int64
}

func (e *exchangeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		e.exchanges.Add(1)
		if e.failing {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"message": "Internal server error"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(e.token)
	})
	return mux
}

func newBridge(t *testing.T, backend *exchangeBackend, store client.TokenStore) *client.Bridge {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	api := client.NewAPI(srv.URL, 0, zerolog.Nop())
	bridge, err := client.NewBridge(api, store, authorizeURLBuilder, redirectURI, zerolog.Nop())
	require.NoError(t, err)
	return bridge
}

func TestBridge_StartBuildsAuthorizeURL(t *testing.T) {
	bridge := newBridge(t, &exchangeBackend{token: mintToken(t, "u42", "Kim")}, &memStore{})

	raw := bridge.Start()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "test_client", query.Get("client_id"))
	assert.Equal(t, redirectURI, query.Get("redirect_uri"))
	assert.NotEmpty(t, query.Get("state"))
}

func TestBridge_IgnoresUnrelatedNavigation(t *testing.T) {
	backend := &exchangeBackend{token: mintToken(t, "u42", "Kim")}
	store := &memStore{}
	bridge := newBridge(t, backend, store)
	bridge.Start()

	for _, raw := range []string{
		"https://kauth.kakao.com/oauth/authorize?client_id=test_client",
		"https://accounts.kakao.com/login",
		"http://localhost:3000/auth/kakao/callback", // no code yet
		"::not a url::",
	} {
		done, err := bridge.ObserveNavigation(context.Background(), raw)
		assert.NoError(t, err, raw)
		assert.False(t, done, raw)
	}

	assert.Equal(t, int64(0), backend.exchanges.Load())
	assert.Empty(t, store.Token())
}

func TestBridge_ExtractsCodeAndStoresToken(t *testing.T) {
	token := mintToken(t, "u42", "Kim")
	backend := &exchangeBackend{token: token}
	store := &memStore{}
	bridge := newBridge(t, backend, store)

	startURL := bridge.Start()
	state := mustQuery(t, startURL).Get("state")

	// Multi-parameter redirect: plain string-splitting on "=" would
	// grab the wrong value here.
	redirect := redirectURI + "?state=" + state + "&code=abc123&extra=1"
	done, err := bridge.ObserveNavigation(context.Background(), redirect)
	require.NoError(t, err)
	assert.True(t, done)

	assert.Equal(t, token, store.Token())
	assert.Equal(t, int64(1), backend.exchanges.Load())
}

func TestBridge_DuplicateNavigationFiresOneExchange(t *testing.T) {
	backend := &exchangeBackend{token: mintToken(t, "u42", "Kim")}
	store := &memStore{}
	bridge := newBridge(t, backend, store)
	bridge.Start()

	redirect := redirectURI + "?code=abc123"
	done, err := bridge.ObserveNavigation(context.Background(), redirect)
	require.NoError(t, err)
	require.True(t, done)

	// The webview fires repeat events with the same (now stale) code.
	for i := 0; i < 3; i++ {
		done, err := bridge.ObserveNavigation(context.Background(), redirect)
		assert.NoError(t, err)
		assert.False(t, done)
	}

	assert.Equal(t, int64(1), backend.exchanges.Load())
}

func TestBridge_ExchangeFailureLeavesStoreEmpty(t *testing.T) {
	backend := &exchangeBackend{failing: true}
	store := &memStore{}
	bridge := newBridge(t, backend, store)
	bridge.Start()

	done, err := bridge.ObserveNavigation(context.Background(), redirectURI+"?code=expired_code")
	assert.False(t, done)
	assert.ErrorIs(t, err, client.ErrExchangeRejected)
	assert.Empty(t, store.Token())

	// The same code is spent; only a fresh attempt with a fresh code
	// can retry.
	done, err = bridge.ObserveNavigation(context.Background(), redirectURI+"?code=expired_code")
	assert.False(t, done)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), backend.exchanges.Load())
}

func TestBridge_UndecodableTokenNotStored(t *testing.T) {
	backend := &exchangeBackend{token: "not-a-jwt"}
	store := &memStore{}
	bridge := newBridge(t, backend, store)
	bridge.Start()

	done, err := bridge.ObserveNavigation(context.Background(), redirectURI+"?code=abc123")
	assert.False(t, done)
	assert.ErrorIs(t, err, client.ErrExchangeRejected)
	assert.Empty(t, store.Token())
}

func TestBridge_StateMismatch(t *testing.T) {
	backend := &exchangeBackend{token: mintToken(t, "u42", "Kim")}
	store := &memStore{}
	bridge := newBridge(t, backend, store)
	bridge.Start()

	done, err := bridge.ObserveNavigation(context.Background(), redirectURI+"?code=abc123&state=forged")
	assert.False(t, done)
	assert.ErrorIs(t, err, client.ErrStateMismatch)
	assert.Empty(t, store.Token())
	assert.Equal(t, int64(0), backend.exchanges.Load())
}

func TestBridge_ObserveBeforeStart(t *testing.T) {
	bridge := newBridge(t, &exchangeBackend{}, &memStore{})

	done, err := bridge.ObserveNavigation(context.Background(), redirectURI+"?code=abc123")
	assert.False(t, done)
	assert.ErrorIs(t, err, client.ErrNoAttempt)
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	if !strings.Contains(raw, "?") {
		return url.Values{}
	}
	return parsed.Query()
}
