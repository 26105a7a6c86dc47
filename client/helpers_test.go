package client_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"drinkd/client"
	"drinkd/core"
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	mu    sync.Mutex
	token string

	LoadCalls int
}

func (s *memStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadCalls++
	if s.token == "" {
		return "", client.ErrNoToken
	}
	return s.token, nil
}

func (s *memStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func (s *memStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

const testSecret = "test-secret-key-for-testing-purposes-only"

func mintToken(t *testing.T, uid, name string) string {
	t.Helper()

	config := &core.Config{JWTSecret: testSecret, SessionTokenDuration: 1800}
	token, err := core.IssueSessionToken(&core.User{UID: uid, Name: name}, config)
	require.NoError(t, err)
	return token
}
