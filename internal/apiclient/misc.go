package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/capitalize-ai/aichat/internal/model"
)

// Models lists the AI models the backend offers.
func (c *Client) Models(ctx context.Context) ([]model.AIModel, error) {
	var models []model.AIModel
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/ai-models"}, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// Statistics returns the current user's usage summary.
func (c *Client) Statistics(ctx context.Context) (*model.Statistics, error) {
	var stats model.Statistics
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/statistics"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Export downloads a rendered conversation. The body is returned verbatim.
func (c *Client) Export(ctx context.Context, id int64, format model.ExportFormat) ([]byte, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("apiclient: unsupported export format %q", format)
	}
	body, _, err := c.Raw(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/export/conversation/%d/%s", id, format),
	})
	return body, err
}
