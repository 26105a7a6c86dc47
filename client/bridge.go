package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"drinkd/core"
)

var (
	ErrStateMismatch = errors.New("authorization state mismatch")
	ErrNoAttempt     = errors.New("no authorization attempt in progress")
)

// Bridge drives one authorization attempt: it hands out the provider's
// authorize URL, watches navigation for the redirect carrying the
// one-time code, exchanges the code with the backend, and stores the
// resulting session token. The webview surface itself lives outside;
// it feeds navigation URLs into ObserveNavigation.
type Bridge struct {
	api          *API
	store        TokenStore
	authorizeURL func(state string) string
	redirectURI  *url.URL
	logger       zerolog.Logger

	mu       sync.Mutex
	state    string
	sent     map[string]bool
	inFlight bool
}

// NewBridge wires a bridge to the backend API, the token store, and the
// provider's authorize-URL builder (core.AuthProvider.AuthorizeURL).
func NewBridge(api *API, store TokenStore, authorizeURL func(state string) string, redirectURI string, logger zerolog.Logger) (*Bridge, error) {
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid redirect URI %q", redirectURI)
	}

	return &Bridge{
		api:          api,
		store:        store,
		authorizeURL: authorizeURL,
		redirectURI:  parsed,
		logger:       logger,
	}, nil
}

// Start begins a fresh authorization attempt and returns the URL to
// open in the browsing surface. Any previous attempt's latch is reset.
func (b *Bridge) Start() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = uuid.NewString()
	b.sent = make(map[string]bool)
	b.inFlight = false
	return b.authorizeURL(b.state)
}

// ObserveNavigation inspects one navigation event. Non-redirect URLs
// are ignored. When the redirect URI carries a code, the code is
// submitted exactly once per attempt: repeat events with the same or a
// stale code are no-ops, as is any event while an exchange is in
// flight. Returns true once a session token has been stored.
func (b *Bridge) ObserveNavigation(ctx context.Context, rawURL string) (bool, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return false, nil
	}

	if target.Host != b.redirectURI.Host || !strings.HasPrefix(target.Path, b.redirectURI.Path) {
		return false, nil
	}

	// Proper query parsing: the redirect may carry more than one
	// parameter and the code may contain encoded characters.
	query := target.Query()
	code := query.Get("code")
	if code == "" {
		return false, nil
	}

	b.mu.Lock()
	if b.sent == nil {
		b.mu.Unlock()
		return false, ErrNoAttempt
	}
	if state := query.Get("state"); state != "" && state != b.state {
		b.mu.Unlock()
		return false, ErrStateMismatch
	}
	if b.sent[code] || b.inFlight {
		b.mu.Unlock()
		b.logger.Debug().Msg("duplicate navigation event ignored")
		return false, nil
	}
	b.sent[code] = true
	b.inFlight = true
	b.mu.Unlock()

	done, err := b.exchange(ctx, code)

	b.mu.Lock()
	b.inFlight = false
	b.mu.Unlock()

	return done, err
}

// exchange submits the code and persists the token only after the
// response has been validated end to end.
func (b *Bridge) exchange(ctx context.Context, code string) (bool, error) {
	token, err := b.api.ExchangeCode(ctx, code)
	if err != nil {
		// The user stays on the authorization screen; a fresh attempt
		// needs a fresh code.
		b.logger.Warn().Err(err).Msg("authorization code exchange failed")
		return false, err
	}

	// Decode locally before persisting. No signature check is possible
	// client-side; this only rejects tokens that are not JWTs at all.
	var claims core.SessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		b.logger.Warn().Err(err).Msg("server returned an undecodable token")
		return false, fmt.Errorf("%w: undecodable token", ErrExchangeRejected)
	}
	if _, ok := claims.Identity(); !ok {
		return false, fmt.Errorf("%w: token has no identity claim", ErrExchangeRejected)
	}

	if err := b.store.Save(token); err != nil {
		return false, err
	}

	b.logger.Info().Msg("session token stored")
	return true, nil
}

// ListenAndAuthorize runs a loopback listener on the redirect URI and
// feeds the provider's redirect into ObserveNavigation. It returns once
// a token is stored, the exchange fails, or ctx is done.
func (b *Bridge) ListenAndAuthorize(ctx context.Context) error {
	type outcome struct {
		done bool
		err  error
	}
	results := make(chan outcome, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(b.redirectURI.Path, func(w http.ResponseWriter, r *http.Request) {
		done, err := b.ObserveNavigation(r.Context(), b.redirectURI.Scheme+"://"+b.redirectURI.Host+r.URL.String())
		if err != nil {
			http.Error(w, "Sign-in failed. You can close this window and retry.", http.StatusBadGateway)
		} else {
			fmt.Fprintln(w, "Signed in. You can close this window.")
		}
		if done || err != nil {
			select {
			case results <- outcome{done: done, err: err}:
			default:
			}
		}
	})

	listener, err := net.Listen("tcp", b.redirectURI.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on redirect URI: %w", err)
	}

	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
