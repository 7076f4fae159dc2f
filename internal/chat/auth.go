package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/capitalize-ai/aichat/internal/model"
	"github.com/capitalize-ai/aichat/internal/notify"
)

// AuthAPI is the subset of the chat API used for account operations.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Profile(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error)
	ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error
}

// CredentialStore persists the token and user.
type CredentialStore interface {
	Login(ctx context.Context, token string, user model.User) error
	SetUser(ctx context.Context, user model.User) error
	Logout(ctx context.Context) error
	IsLoggedIn() bool
	User() *model.User
}

// Auth drives login, logout and profile maintenance.
type Auth struct {
	api      AuthAPI
	creds    CredentialStore
	notifier notify.Notifier
}

// NewAuth wires the account operations. notifier may be nil.
func NewAuth(api AuthAPI, creds CredentialStore, notifier notify.Notifier) (*Auth, error) {
	if api == nil {
		return nil, errors.New("chat: auth api must not be nil")
	}
	if creds == nil {
		return nil, errors.New("chat: credential store must not be nil")
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Auth{api: api, creds: creds, notifier: notifier}, nil
}

// Login authenticates and persists the issued token with its user.
func (a *Auth) Login(ctx context.Context, username, password string) (model.User, error) {
	resp, err := a.api.Login(ctx, model.LoginRequest{Username: username, Password: password})
	if err != nil {
		return model.User{}, fmt.Errorf("login: %w", err)
	}
	if err := a.creds.Login(ctx, resp.Token, resp.User); err != nil {
		return model.User{}, fmt.Errorf("store credentials: %w", err)
	}
	notify.Success(a.notifier, "Login successful")
	return resp.User, nil
}

// Register creates an account. It does not log in.
func (a *Auth) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	user, err := a.api.Register(ctx, req)
	if err != nil {
		return model.User{}, fmt.Errorf("register: %w", err)
	}
	notify.Success(a.notifier, "Registration successful, please log in")
	return *user, nil
}

// Logout clears token and user together.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.creds.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// IsLoggedIn reports whether a token is held.
func (a *Auth) IsLoggedIn() bool {
	return a.creds.IsLoggedIn()
}

// RefreshProfile fetches the profile and caches it.
func (a *Auth) RefreshProfile(ctx context.Context) (model.User, error) {
	user, err := a.api.Profile(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("fetch profile: %w", err)
	}
	if err := a.creds.SetUser(ctx, *user); err != nil {
		return model.User{}, err
	}
	return *user, nil
}

// UpdateProfile saves profile fields and caches the result.
func (a *Auth) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (model.User, error) {
	user, err := a.api.UpdateProfile(ctx, req)
	if err != nil {
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	if err := a.creds.SetUser(ctx, *user); err != nil {
		return model.User{}, err
	}
	notify.Success(a.notifier, "Profile updated")
	return *user, nil
}

// ChangePassword replaces the account password.
func (a *Auth) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := a.api.ChangePassword(ctx, model.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	notify.Success(a.notifier, "Password changed")
	return nil
}
