package client

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"drinkd/core"
)

// SessionState is the derived, client-only session state. It is never
// persisted; every app start derives it again.
type SessionState int

const (
	Anonymous SessionState = iota
	AuthenticatedIncompleteProfile
	AuthenticatedComplete
)

func (s SessionState) String() string {
	switch s {
	case AuthenticatedIncompleteProfile:
		return "authenticated-incomplete-profile"
	case AuthenticatedComplete:
		return "authenticated-complete"
	default:
		return "anonymous"
	}
}

type BootstrapResult struct {
	State SessionState
	UID   string
	Name  string
}

// Bootstrapper derives the session state at app start from the stored
// token and the backend. Every failure path resolves to Anonymous; the
// app must always reach a navigable state.
type Bootstrapper struct {
	store   TokenStore
	api     *API
	timeout time.Duration
	logger  zerolog.Logger
}

const defaultBootstrapTimeout = 5 * time.Second

func NewBootstrapper(store TokenStore, api *API, timeout time.Duration, logger zerolog.Logger) *Bootstrapper {
	if timeout <= 0 {
		timeout = defaultBootstrapTimeout
	}
	return &Bootstrapper{
		store:   store,
		api:     api,
		timeout: timeout,
		logger:  logger,
	}
}

// Bootstrap never returns an error: network and decode failures are
// logged and absorbed into Anonymous.
func (b *Bootstrapper) Bootstrap(ctx context.Context) BootstrapResult {
	anonymous := BootstrapResult{State: Anonymous}

	// 1. Stored token. Absent means anonymous with zero network calls.
	token, err := b.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			b.logger.Warn().Err(err).Msg("token store read failed")
		}
		return anonymous
	}

	// 2./3. Local decode only; the client holds no secret, so nothing
	// authorization-relevant is derived from this.
	var claims core.SessionClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		b.logger.Warn().Err(err).Msg("stored token is undecodable, treating as signed out")
		return anonymous
	}

	identity, ok := claims.Identity()
	if !ok {
		b.logger.Warn().Msg("stored token has no identity claim, treating as signed out")
		return anonymous
	}

	// 4. Existence and profile-completeness, bounded so startup never
	// hangs on the network.
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	exists, err := b.api.UserExists(ctx, identity.UID)
	if err != nil {
		b.logger.Warn().Err(err).Msg("bootstrap user lookup failed, continuing as signed out")
		return anonymous
	}
	if !exists {
		// Orphaned token: the row behind it is gone.
		b.logger.Info().Str("u_id", identity.UID).Msg("stored token references an unknown user")
		return anonymous
	}

	user, err := b.api.FetchUser(ctx, token)
	if err != nil {
		b.logger.Warn().Err(err).Msg("bootstrap profile fetch failed, continuing as signed out")
		return anonymous
	}

	state := AuthenticatedIncompleteProfile
	if user.ProfileComplete() {
		state = AuthenticatedComplete
	}

	return BootstrapResult{
		State: state,
		UID:   identity.UID,
		Name:  identity.Name,
	}
}
