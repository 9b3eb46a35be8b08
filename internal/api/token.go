package api

import (
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by protected calls made while no access token is held.
var ErrNoToken = errors.New("api: not authenticated")

// TokenHolder owns the bearer token attached to protected requests. It is
// shared between the client and the auth store; only the store mutates it.
type TokenHolder struct {
	mu    sync.RWMutex
	token string
}

func NewTokenHolder() *TokenHolder {
	return &TokenHolder{}
}

func (h *TokenHolder) Set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

func (h *TokenHolder) Clear() {
	h.Set("")
}

func (h *TokenHolder) Value() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Token implements oauth2.TokenSource.
func (h *TokenHolder) Token() (*oauth2.Token, error) {
	value := h.Value()
	if value == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}
