// Package settings stores the small amount of mutable configuration
// the UI can edit at runtime: Confluence credentials and the calendar
// token. It lives in a JSON file next to the board.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type Settings struct {
	ConfluenceURL   string `json:"confluence_url,omitempty"`
	ConfluenceEmail string `json:"confluence_email,omitempty"`
	ConfluenceToken string `json:"confluence_token,omitempty"`
	CalendarToken   string `json:"calendar_token,omitempty"`
}

// Update carries a partial settings change. Nil means "leave alone".
// Tokens are write-only: an empty token in an update is ignored so the
// UI can round-trip the masked form without wiping credentials.
type Update struct {
	ConfluenceURL   *string `json:"confluence_url"`
	ConfluenceEmail *string `json:"confluence_email"`
	ConfluenceToken *string `json:"confluence_token"`
	CalendarToken   *string `json:"calendar_token"`
}

// Public is the redacted view handed to the UI.
type Public struct {
	ConfluenceURL      string `json:"confluence_url"`
	ConfluenceEmail    string `json:"confluence_email"`
	ConfluenceToken    string `json:"confluence_token"`
	ConfluenceTokenSet bool   `json:"confluence_token_set"`
	CalendarConnected  bool   `json:"calendar_connected"`
}

func (s Settings) Public() Public {
	return Public{
		ConfluenceURL:      s.ConfluenceURL,
		ConfluenceEmail:    s.ConfluenceEmail,
		ConfluenceToken:    "",
		ConfluenceTokenSet: s.ConfluenceToken != "",
		CalendarConnected:  s.CalendarToken != "",
	}
}

type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "settings.json")}
}

func (f *FileStore) Load() (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *FileStore) loadLocked() (Settings, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (f *FileStore) Save(s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveLocked(s)
}

func (f *FileStore) saveLocked(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Apply merges an update into the stored settings and returns the
// result.
func (f *FileStore) Apply(u Update) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.loadLocked()
	if err != nil {
		return Settings{}, err
	}
	if u.ConfluenceURL != nil {
		s.ConfluenceURL = *u.ConfluenceURL
	}
	if u.ConfluenceEmail != nil {
		s.ConfluenceEmail = *u.ConfluenceEmail
	}
	if u.ConfluenceToken != nil && *u.ConfluenceToken != "" {
		s.ConfluenceToken = *u.ConfluenceToken
	}
	if u.CalendarToken != nil && *u.CalendarToken != "" {
		s.CalendarToken = *u.CalendarToken
	}
	if err := f.saveLocked(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ClearCalendarToken drops the stored calendar credential, used when
// the provider rejects it.
func (f *FileStore) ClearCalendarToken() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.loadLocked()
	if err != nil {
		return err
	}
	s.CalendarToken = ""
	return f.saveLocked(s)
}
