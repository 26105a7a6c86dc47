package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Screen is the initial-screen choice the navigation state machine
// makes for the UI layer.
type Screen int

const (
	Unauthenticated Screen = iota // provider login
	AwaitingProfile               // profile-completion form
	Ready                         // main application
)

func (s Screen) String() string {
	switch s {
	case AwaitingProfile:
		return "awaiting-profile"
	case Ready:
		return "ready"
	default:
		return "unauthenticated"
	}
}

var ErrInvalidTransition = errors.New("invalid navigation transition")

// Navigator is the client navigation state machine. The initial screen
// is fixed synchronously from the bootstrap result before anything
// renders; there is no intermediate wrong-screen state.
type Navigator struct {
	mu     sync.Mutex
	screen Screen
	store  TokenStore
	logger zerolog.Logger
}

func NewNavigator(result BootstrapResult, store TokenStore, logger zerolog.Logger) *Navigator {
	screen := Unauthenticated
	switch result.State {
	case AuthenticatedIncompleteProfile:
		screen = AwaitingProfile
	case AuthenticatedComplete:
		screen = Ready
	}

	return &Navigator{
		screen: screen,
		store:  store,
		logger: logger,
	}
}

func (n *Navigator) Screen() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen
}

// LoginSucceeded moves forward after the OAuth bridge has stored a
// session token; where to depends on whether the backend reported a
// complete profile.
func (n *Navigator) LoginSucceeded(profileComplete bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.screen != Unauthenticated {
		return fmt.Errorf("%w: login from %s", ErrInvalidTransition, n.screen)
	}

	if profileComplete {
		n.screen = Ready
	} else {
		n.screen = AwaitingProfile
	}
	return nil
}

// ProfileSubmitted moves to the main application after the
// profile-completion form was accepted by the backend.
func (n *Navigator) ProfileSubmitted() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.screen != AwaitingProfile {
		return fmt.Errorf("%w: profile submit from %s", ErrInvalidTransition, n.screen)
	}

	n.screen = Ready
	return nil
}

// Logout deletes the stored session token and returns to the login
// screen. Valid from any state.
func (n *Navigator) Logout() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.store.Delete(); err != nil {
		return err
	}

	n.logger.Info().Msg("logged out")
	n.screen = Unauthenticated
	return nil
}
