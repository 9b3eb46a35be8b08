package app

import (
	"encoding/json"
	"os"
	"path/filepath"

	"sessions-admin/internal/utils"
)

// Settings are remembered between runs. They hold nothing secret.
type Settings struct {
	LastEmail string `json:"lastEmail"`
}

func (a *App) SettingsPath() string {
	return filepath.Join(a.Config.DataDir, "settings.json")
}

func (a *App) EnsureDataDir() error {
	return os.MkdirAll(a.Config.DataDir, 0o700)
}

func (a *App) loadSettings() error {
	data, err := os.ReadFile(a.SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return err
	}
	a.settings = settings
	return nil
}

func (a *App) saveSettings() error {
	if err := a.EnsureDataDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(a.settings, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(a.SettingsPath(), data, 0o600)
}

// LastEmail is the address of the most recent successful login.
func (a *App) LastEmail() string {
	return a.settings.LastEmail
}
