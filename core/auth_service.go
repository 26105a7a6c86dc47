package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
)

var ErrCodeAlreadyUsed = errors.New("authorization code already used")

// usedCodeTTL bounds how long an authorization code is remembered by the
// replay guard. Provider codes expire well within this window.
const usedCodeTTL = 10 * time.Minute

type AuthService struct {
	repo      Repository
	config    *Config
	provider  AuthProvider
	usedCodes *ttlcache.Cache[string, struct{}]
	logger    zerolog.Logger
}

func NewAuthService(repo Repository, config *Config, provider AuthProvider, logger zerolog.Logger) *AuthService {
	usedCodes := ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](usedCodeTTL),
	)
	go usedCodes.Start()

	return &AuthService{
		repo:      repo,
		config:    config,
		provider:  provider,
		usedCodes: usedCodes,
		logger:    logger,
	}
}

// Close stops the replay-guard janitor.
func (s *AuthService) Close() {
	s.usedCodes.Stop()
}

// ExchangeCode runs the whole authorization-code exchange: provider
// token exchange, profile fetch, find-or-create of the local user, and
// session token issuance. A created user row persists even if a later
// step fails; retries are idempotent because the row is keyed by the
// provider's user id.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty code", ErrProviderExchange)
	}

	// Codes are single-use. The guard catches replays before they cost
	// a provider round-trip; the provider rejects whatever slips past.
	if s.usedCodes.Has(code) {
		return "", ErrCodeAlreadyUsed
	}
	s.usedCodes.Set(code, struct{}{}, ttlcache.DefaultTTL)

	// 1. Exchange authorization code for provider tokens
	exchangeCtx, cancel := s.upstreamContext(ctx)
	tokens, err := s.provider.ExchangeCode(exchangeCtx, code)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	// 2. Fetch the external profile; the access token is not kept
	profileCtx, cancel := s.upstreamContext(ctx)
	profile, err := s.provider.GetProfile(profileCtx, tokens.AccessToken)
	cancel()
	if err != nil {
		return "", fmt.Errorf("failed to get provider profile: %w", err)
	}

	// 3. Find or create the local user (signup-on-first-login)
	user, err := s.repo.FindByUID(ctx, profile.ProviderUserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("failed to find user: %w", err)
		}

		now := time.Now()
		user = &User{
			UID:       profile.ProviderUserID,
			Name:      profile.DisplayName,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.repo.CreateUser(ctx, user); err != nil {
			if !errors.Is(err, ErrAlreadyExists) {
				return "", fmt.Errorf("failed to create user: %w", err)
			}
			// Lost a concurrent signup race; the winner's row is ours.
			user, err = s.repo.FindByUID(ctx, profile.ProviderUserID)
			if err != nil {
				return "", fmt.Errorf("failed to find user after create race: %w", err)
			}
		} else {
			s.logger.Info().Str("u_id", user.UID).Msg("registered new user on first login")
		}
	}

	// 4. Issue the session token
	sessionToken, err := IssueSessionToken(user, s.config)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info().Str("u_id", user.UID).Msg("authorization code exchanged")
	return sessionToken, nil
}

func (s *AuthService) upstreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.config.UpstreamTimeout)*time.Second)
}
