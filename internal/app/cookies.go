package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"sessions-admin/internal/storage"
)

// storedCookie is what survives a restart. The jar only exposes name and
// value, and the backend scopes its refresh cookie to the whole host.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// restoreCookies loads the refresh cookie saved by an earlier run into the
// client's jar.
func (a *App) restoreCookies(ctx context.Context) error {
	raw, ok, err := a.Store.Get(ctx, storage.KeyCookies)
	if err != nil || !ok {
		return err
	}
	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		_ = a.Store.Delete(ctx, storage.KeyCookies)
		return fmt.Errorf("decode cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	a.Client.SetCookies(cookies)
	return nil
}

func (a *App) saveCookies(ctx context.Context) error {
	cookies := a.Client.Cookies()
	if len(cookies) == 0 {
		return a.Store.Delete(ctx, storage.KeyCookies)
	}
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return a.Store.Set(ctx, storage.KeyCookies, string(data))
}
