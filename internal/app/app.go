// Package app wires configuration, storage, the API client and the
// controllers into one value shared by the TUI and the CLI subcommands.
package app

import (
	"context"
	"errors"
	"fmt"

	"sessions-admin/internal/api"
	"sessions-admin/internal/auth"
	"sessions-admin/internal/dashboard"
	"sessions-admin/internal/storage"
	"sessions-admin/internal/types"
	"sessions-admin/internal/utils"
)

// ErrNotLoggedIn is returned by commands that need a stored session.
var ErrNotLoggedIn = errors.New("not logged in; run `sessions-admin login` first")

type App struct {
	Config    Config
	Logger    *utils.Logger
	Store     storage.Store
	Tokens    *api.TokenHolder
	Client    *api.Client
	Auth      *auth.Store
	Dashboard *dashboard.Controller
	settings  Settings
}

type Options struct {
	// Notifier receives dashboard notices as they are raised.
	Notifier dashboard.Notifier
}

func New(cfg Config, logger *utils.Logger, opts Options) (*App, error) {
	cfg = cfg.Resolve()
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	a := &App{Config: cfg, Logger: logger, Tokens: api.NewTokenHolder()}
	if err := a.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("app: data dir: %w", err)
	}
	if err := a.loadSettings(); err != nil {
		logger.Warnf("failed to load settings: %v", err)
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("app: open storage: %w", err)
	}
	client, err := api.NewClient(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger.With("component", "api"),
	}, a.Tokens)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a.Store = store
	a.Client = client
	a.Auth = auth.NewStore(client, store, a.Tokens, logger.With("component", "auth"))
	a.Dashboard = dashboard.New(client, dashboard.Options{
		Logger:   logger.With("component", "dashboard"),
		Notifier: opts.Notifier,
	})
	if err := a.restoreCookies(context.Background()); err != nil {
		logger.Warnf("failed to restore cookies: %v", err)
	}
	logger.Debugf("api %s, storage %s at %s", client.BaseURL(), cfg.Storage.Driver, cfg.Storage.Path)
	return a, nil
}

// Login signs in and remembers the address for the next run.
func (a *App) Login(ctx context.Context, email, password string) (types.User, error) {
	user, err := a.Auth.Login(ctx, email, password)
	if err != nil {
		return types.User{}, err
	}
	a.settings.LastEmail = email
	if err := a.saveSettings(); err != nil {
		a.Logger.Warnf("failed to save settings: %v", err)
	}
	if err := a.saveCookies(ctx); err != nil {
		a.Logger.Warnf("failed to save cookies: %v", err)
	}
	return user, nil
}

// Logout ends the session locally and remotely and forgets the refresh
// cookie.
func (a *App) Logout(ctx context.Context) {
	a.Auth.Logout(ctx)
	if err := a.Store.Delete(ctx, storage.KeyCookies); err != nil {
		a.Logger.Warnf("failed to delete cookies: %v", err)
	}
}

// RefreshToken trades the refresh cookie for a new access token.
func (a *App) RefreshToken(ctx context.Context) error {
	if err := a.Auth.Refresh(ctx); err != nil {
		return err
	}
	if err := a.saveCookies(ctx); err != nil {
		a.Logger.Warnf("failed to save cookies: %v", err)
	}
	return nil
}

// RequireLogin restores a stored session and fails when there is none.
func (a *App) RequireLogin(ctx context.Context) (types.User, error) {
	if err := a.Auth.Bootstrap(ctx); err != nil {
		return types.User{}, err
	}
	user, ok := a.Auth.User()
	if !ok {
		return types.User{}, ErrNotLoggedIn
	}
	return user, nil
}

func (a *App) Close() error {
	a.Logger.Sync()
	return a.Store.Close()
}
