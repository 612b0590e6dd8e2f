package api

import (
	"context"
	"net/http"

	"github.com/pablasso/newsdesk/internal/task"
)

// ListClients returns the client directory.
func (c *Client) ListClients(ctx context.Context) ([]task.Client, error) {
	var clients []task.Client
	if err := c.doJSON(ctx, http.MethodGet, "/api/clients/", nil, nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ListMedia returns the media directory.
func (c *Client) ListMedia(ctx context.Context) ([]task.Media, error) {
	var media []task.Media
	if err := c.doJSON(ctx, http.MethodGet, "/api/media/", nil, nil, &media); err != nil {
		return nil, err
	}
	return media, nil
}
