package api

import (
	"context"
	"net/http"

	"sessions-admin/internal/types"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token and identity. It is the
// only call that never carries a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (types.LoginResponse, error) {
	var out types.LoginResponse
	err := c.do(ctx, c.public, http.MethodPost, "/users/login", loginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, c.protected, http.MethodPost, "/users/logout", nil, nil)
}

// Refresh asks for a new access token using the refresh cookie in the jar.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out types.RefreshResponse
	if err := c.do(ctx, c.public, http.MethodPost, "/users/refresh-token", nil, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}
