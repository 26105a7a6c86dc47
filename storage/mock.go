package storage

import (
	"context"
	"sync"
	"time"

	"drinkd/core"
)

// MockRepository is an in-memory Repository for tests.
type MockRepository struct {
	mu    sync.Mutex
	users map[string]*core.User

	// track method calls for verification
	FindByUIDCalls     int
	CreateUserCalls    int
	UpdateProfileCalls int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users: make(map[string]*core.User),
	}
}

// Seed installs a user directly, bypassing the signup path.
func (r *MockRepository) Seed(user *core.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.UID] = &copied
}

func (r *MockRepository) UserCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *MockRepository) FindByUID(ctx context.Context, uid string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindByUIDCalls++

	user, ok := r.users[uid]
	if !ok {
		return nil, core.ErrNotFound
	}

	copied := *user
	return &copied, nil
}

func (r *MockRepository) CreateUser(ctx context.Context, user *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CreateUserCalls++

	if _, ok := r.users[user.UID]; ok {
		return core.ErrAlreadyExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	copied := *user
	r.users[user.UID] = &copied
	return nil
}

func (r *MockRepository) UpdateProfile(ctx context.Context, uid string, update core.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpdateProfileCalls++

	user, ok := r.users[uid]
	if !ok {
		return core.ErrNotFound
	}

	user.Height = update.Height
	user.Weight = update.Weight
	user.Age = update.Age
	user.Sex = update.Sex
	user.ActivityLevel = update.ActivityLevel
	user.SugarLimitGrams = update.SugarLimitGrams
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MockRepository) Close() error {
	return nil
}
