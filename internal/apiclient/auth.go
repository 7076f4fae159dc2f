package apiclient

import (
	"context"
	"net/http"

	"github.com/capitalize-ai/aichat/internal/model"
)

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/register", Body: req}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/auth/profile"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	var user model.User
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: "/auth/profile", Body: req}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/change-password", Body: req}, nil)
}
