// Package storage keeps the small amount of client state that must survive a
// restart: the access token, the cached identity and the refresh cookie.
package storage

import (
	"context"
	"fmt"
)

// Keys written by the auth store, plus the refresh cookie kept by the app.
const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
	KeyCookies     = "cookies"
)

// Store is a durable string key/value store.
type Store interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open returns the store for driver rooted at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(path), nil
	case DriverSQLite:
		store, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
