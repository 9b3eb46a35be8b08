package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"sessions-admin/internal/types"
)

func (c *Client) ListSessions(ctx context.Context) ([]types.Session, error) {
	var list types.SessionList
	if err := c.do(ctx, c.protected, http.MethodGet, "/sessions", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = types.SessionList{}
	}
	return []types.Session(list), nil
}

func (c *Client) CreateSession(ctx context.Context, payload types.SessionPayload) (types.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, c.protected, http.MethodPost, "/users/sessions", payload, &out); err != nil {
		return types.Session{}, err
	}
	return out.session(), nil
}

func (c *Client) UpdateSession(ctx context.Context, id string, payload types.SessionPayload) (types.Session, error) {
	var out sessionEnvelope
	if err := c.do(ctx, c.protected, http.MethodPut, "/sessions/"+url.PathEscape(id), payload, &out); err != nil {
		return types.Session{}, err
	}
	return out.session(), nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, c.protected, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SendEmail(ctx context.Context, id string) error {
	return c.do(ctx, c.protected, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/send-email", nil, nil)
}

func (c *Client) SendAllEmails(ctx context.Context) error {
	return c.do(ctx, c.protected, http.MethodPost, "/sessions/send-all-emails", nil, nil)
}

// sessionEnvelope accepts a session either bare or wrapped under "data".
type sessionEnvelope struct {
	raw json.RawMessage
}

func (e *sessionEnvelope) UnmarshalJSON(data []byte) error {
	e.raw = append(e.raw[:0], data...)
	return nil
}

func (e sessionEnvelope) session() types.Session {
	var wrapped struct {
		Data *types.Session `json:"data"`
	}
	if err := json.Unmarshal(e.raw, &wrapped); err == nil && wrapped.Data != nil {
		return *wrapped.Data
	}
	var s types.Session
	_ = json.Unmarshal(e.raw, &s)
	return s
}
