// Package auth owns the authenticated identity and the access token, keeping
// both in memory, in the shared token holder and in durable storage.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"sessions-admin/internal/api"
	"sessions-admin/internal/storage"
	"sessions-admin/internal/types"
	"sessions-admin/internal/utils"
)

// ErrIncompleteLogin is returned when the backend accepts the credentials but
// omits the token or the identity.
var ErrIncompleteLogin = errors.New("auth: login response missing token or user")

// Backend is the subset of the API client the store depends on.
type Backend interface {
	Login(ctx context.Context, email, password string) (types.LoginResponse, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (string, error)
}

type Store struct {
	backend Backend
	store   storage.Store
	tokens  *api.TokenHolder
	logger  *utils.Logger

	mu    sync.RWMutex
	ready bool
	user  *types.User
	token string
}

func NewStore(backend Backend, store storage.Store, tokens *api.TokenHolder, logger *utils.Logger) *Store {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Store{backend: backend, store: store, tokens: tokens, logger: logger}
}

// Bootstrap restores a previous login from durable storage without contacting
// the backend. Any read or decode failure, or a partial session, leaves the
// store unauthenticated with both durable keys removed.
func (s *Store) Bootstrap(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	}()

	user, token, err := s.restore(ctx)
	if err != nil {
		s.logger.Warnf("discarding stored session: %v", err)
		s.clearMemory()
		if derr := s.store.Delete(ctx, storage.KeyAccessToken, storage.KeyUser); derr != nil {
			return fmt.Errorf("auth: clear stored session: %w", derr)
		}
		return nil
	}
	if user == nil {
		s.clearMemory()
		return nil
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
	s.tokens.Set(token)
	s.logger.Infof("restored session for %s", user.Email)
	return nil
}

// restore reads both durable keys. Nothing stored is not an error; half a
// session (a token without identity or the reverse) is.
func (s *Store) restore(ctx context.Context) (*types.User, string, error) {
	token, hasToken, err := s.store.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		return nil, "", fmt.Errorf("read token: %w", err)
	}
	raw, hasUser, err := s.store.Get(ctx, storage.KeyUser)
	if err != nil {
		return nil, "", fmt.Errorf("read user: %w", err)
	}
	hasToken = hasToken && token != ""
	switch {
	case !hasToken && !hasUser:
		return nil, "", nil
	case !hasUser:
		return nil, "", errors.New("token without identity")
	case !hasToken:
		return nil, "", errors.New("identity without token")
	}
	var user types.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, "", fmt.Errorf("decode user: %w", err)
	}
	return &user, token, nil
}

// Login exchanges credentials for a session. Any failure leaves the store
// unauthenticated with memory and durable state cleared.
func (s *Store) Login(ctx context.Context, email, password string) (types.User, error) {
	resp, err := s.backend.Login(ctx, email, password)
	if err == nil && (resp.AccessToken == "" || resp.User == nil) {
		err = ErrIncompleteLogin
	}
	if err == nil {
		err = s.persist(ctx, resp.AccessToken, resp.User)
	}
	if err != nil {
		s.clear(ctx)
		return types.User{}, err
	}

	user := *resp.User
	s.mu.Lock()
	s.user = &user
	s.token = resp.AccessToken
	s.mu.Unlock()
	s.tokens.Set(resp.AccessToken)
	s.logger.Infof("logged in as %s", user.Email)
	return user, nil
}

func (s *Store) persist(ctx context.Context, token string, user *types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("auth: encode user: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyAccessToken, token); err != nil {
		return fmt.Errorf("auth: store token: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyUser, string(data)); err != nil {
		return fmt.Errorf("auth: store user: %w", err)
	}
	return nil
}

// Logout invalidates the session remotely on a best-effort basis and always
// clears local state.
func (s *Store) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warnf("remote logout failed: %v", err)
	}
	s.clear(ctx)
	s.logger.Infof("logged out")
}

// Refresh trades the refresh cookie for a new access token and stores it.
// A failure leaves the current session untouched.
func (s *Store) Refresh(ctx context.Context) error {
	token, err := s.backend.Refresh(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("auth: refresh returned no token")
	}
	if err := s.store.Set(ctx, storage.KeyAccessToken, token); err != nil {
		return fmt.Errorf("auth: store token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.tokens.Set(token)
	return nil
}

func (s *Store) clear(ctx context.Context) {
	s.clearMemory()
	if err := s.store.Delete(ctx, storage.KeyAccessToken, storage.KeyUser); err != nil {
		s.logger.Errorf("clear stored session: %v", err)
	}
}

func (s *Store) clearMemory() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	s.tokens.Clear()
}

// Ready reports whether Bootstrap has finished.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Store) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}
