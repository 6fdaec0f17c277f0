package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"taskflow/internal/model"
	"taskflow/internal/remote"
)

// SettingsStore holds the user's synced settings row.
type SettingsStore struct {
	remote  remote.Service
	session SessionSource
	logger  *log.Logger

	mu       sync.Mutex
	settings *model.UserSettings
}

// NewSettingsStore creates a settings store. logger may be nil.
func NewSettingsStore(svc remote.Service, session SessionSource, logger *log.Logger) *SettingsStore {
	if logger == nil {
		logger = log.Default()
	}
	return &SettingsStore{remote: svc, session: session, logger: logger}
}

// Fetch loads the settings row. remote.ErrNotFound means the user has no
// row yet; that is not an error, Settings just reports absence.
func (s *SettingsStore) Fetch(ctx context.Context) error {
	userID, ok := s.session.UserID()
	if !ok {
		return ErrNotSignedIn
	}

	settings, err := s.remote.UserSettings(ctx, userID)
	if errors.Is(err, remote.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Printf("settingsstore: fetch: %v", err)
		return err
	}

	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	return nil
}

// Settings returns the current row, if one was fetched.
func (s *SettingsStore) Settings() (model.UserSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return model.UserSettings{}, false
	}
	return *s.settings, true
}

// Update upserts the patch and keeps the canonical server row.
func (s *SettingsStore) Update(ctx context.Context, patch model.SettingsPatch) error {
	userID, ok := s.session.UserID()
	if !ok {
		return ErrNotSignedIn
	}

	settings, err := s.remote.UpsertUserSettings(ctx, userID, patch)
	if err != nil {
		s.logger.Printf("settingsstore: update: %v", err)
		return err
	}

	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	return nil
}
