package tokenstore

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

// Provider caches credentials in memory over a durable Store. It is safe for
// concurrent use; a cleared token is seen by the next reader.
type Provider struct {
	store  Store
	logger *logger.Logger

	mu    sync.RWMutex
	creds Credentials
}

// NewProvider loads the persisted credentials. Corrupt data is discarded.
func NewProvider(ctx context.Context, store Store, log *logger.Logger) (*Provider, error) {
	if store == nil {
		return nil, errors.New("tokenstore: store must not be nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	creds, err := store.Load(ctx)
	if errors.Is(err, ErrCorrupt) {
		log.Warn("discarding corrupt credentials", zap.Error(err))
		creds, err = Credentials{}, store.Clear(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &Provider{store: store, logger: log, creds: creds}, nil
}

// Token returns the current bearer token or "".
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds.Token
}

// User returns a copy of the stored user profile, or nil.
func (p *Provider) User() *model.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.creds.User == nil {
		return nil
	}
	u := *p.creds.User
	return &u
}

// IsLoggedIn reports whether a token is held.
func (p *Provider) IsLoggedIn() bool {
	return p.Token() != ""
}

// Login stores a freshly issued token together with its user.
func (p *Provider) Login(ctx context.Context, token string, user model.User) error {
	creds := Credentials{Token: token, User: &user}

	p.mu.Lock()
	p.creds = creds
	p.mu.Unlock()

	return p.store.Save(ctx, creds)
}

// SetUser replaces the cached profile, keeping the token.
func (p *Provider) SetUser(ctx context.Context, user model.User) error {
	p.mu.Lock()
	p.creds.User = &user
	creds := p.creds
	p.mu.Unlock()

	return p.store.Save(ctx, creds)
}

// Logout removes token and user together.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.creds = Credentials{}
	p.mu.Unlock()

	return p.store.Clear(ctx)
}

// Invalidate is the session-expiry path: it clears credentials and only logs storage failures.
func (p *Provider) Invalidate(ctx context.Context) {
	if err := p.Logout(ctx); err != nil {
		p.logger.Error("failed to clear stored credentials", zap.Error(err))
	}
}
