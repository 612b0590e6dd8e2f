package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pablasso/newsdesk/internal/task"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. Any non-success response is
// reported as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	const path = "/api/auth/login"

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out loginResponse
	if err := c.send(req, path, &out); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("POST %s: response has no access_token", path)
	}
	return out.AccessToken, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (task.User, error) {
	var user task.User
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, nil, &user)
	return user, err
}
