package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/capitalize-ai/aichat/internal/model"
)

func (c *Client) CreateRole(ctx context.Context, req model.RoleRequest) (*model.AIRole, error) {
	var role model.AIRole
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/roles", Body: req}, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) MyRoles(ctx context.Context) ([]model.AIRole, error) {
	return c.listRoles(ctx, "/roles/mine")
}

func (c *Client) PublicRoles(ctx context.Context) ([]model.AIRole, error) {
	return c.listRoles(ctx, "/roles/public")
}

func (c *Client) UpdateRole(ctx context.Context, id int64, req model.RoleRequest) (*model.AIRole, error) {
	var role model.AIRole
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: fmt.Sprintf("/roles/%d", id), Body: req}, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (c *Client) DeleteRole(ctx context.Context, id int64) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: fmt.Sprintf("/roles/%d", id)}, nil)
}

func (c *Client) listRoles(ctx context.Context, path string) ([]model.AIRole, error) {
	var roles []model.AIRole
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path}, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}
