// Package tokenstore persists the authentication token and user profile between runs.
package tokenstore

import (
	"context"
	"errors"
	"sync"

	"github.com/capitalize-ai/aichat/internal/model"
)

// Storage keys shared by every backend.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrCorrupt is returned when persisted credentials cannot be decoded.
var ErrCorrupt = errors.New("tokenstore: stored credentials are corrupt")

// Credentials is the persisted authentication state.
type Credentials struct {
	Token string      `json:"token,omitempty"`
	User  *model.User `json:"user,omitempty"`
}

// Empty reports whether no token is held.
func (c Credentials) Empty() bool {
	return c.Token == ""
}

// Store is durable storage for credentials.
type Store interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()
	return nil
}
