package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/checksum"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/storage"
)

// DefaultSettingsFile is the settings document name inside the data directory.
const DefaultSettingsFile = "settings.json"

// SettingsStore holds the settings document.
type SettingsStore struct {
	store  storage.Provider
	name   string
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	cur           models.Settings
	sum           string
	health        Health
	pendingBackup bool
	listeners     []func(models.Settings)
}

// NewSettingsStore returns a store for the document name in store, holding
// defaults until Load is called.
func NewSettingsStore(store storage.Provider, name string, logger *slog.Logger) *SettingsStore {
	if name == "" {
		name = DefaultSettingsFile
	}
	return &SettingsStore{store: store, name: name, logger: logger, now: time.Now, cur: models.DefaultSettings()}
}

// Name returns the document file name.
func (s *SettingsStore) Name() string { return s.name }

// Load reads the settings document. Missing keys take defaults and unknown
// keys are ignored. An unreadable or invalid document falls back to the
// defaults, is reported by Health and is moved aside by the next Update.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Read(s.name)
	if errors.Is(err, fs.ErrNotExist) {
		s.cur, s.sum, s.health = models.DefaultSettings(), "", Health{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("docstore: load settings: %w", err)
	}
	cfg, err := decodeSettings(data)
	if err != nil {
		s.logger.Error("docstore: invalid settings document, using defaults",
			slog.String("file", s.name), slog.String("error", err.Error()))
		s.cur, s.sum = models.DefaultSettings(), ""
		s.health = Health{Malformed: true, Reason: err.Error()}
		s.pendingBackup = true
		return nil
	}
	s.cur, s.sum, s.health = cfg, checksum.Sum(data), Health{}
	s.pendingBackup = false
	return nil
}

// Reload re-reads the document after an external edit.
func (s *SettingsStore) Reload() (bool, error) {
	s.mu.Lock()
	data, err := s.store.Read(s.name)
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("docstore: reload settings: %w", err)
	}
	sum := checksum.Sum(data)
	if sum == s.sum {
		s.mu.Unlock()
		return false, nil
	}
	cfg, err := decodeSettings(data)
	if err != nil {
		s.pendingBackup = true
		s.mu.Unlock()
		return false, fmt.Errorf("docstore: reload settings: %w", err)
	}
	s.cur, s.sum = cfg, sum
	s.pendingBackup = false
	listeners := s.listeners
	s.mu.Unlock()

	s.logger.Info("docstore: settings reloaded from disk", slog.String("file", s.name))
	notify(listeners, cfg)
	return true, nil
}

// Health returns the settings document health as of the last load.
func (s *SettingsStore) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// Get returns the current settings.
func (s *SettingsStore) Get() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Subscribe registers fn to receive the settings after every change.
func (s *SettingsStore) Subscribe(fn func(models.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update validates and saves cfg. An invalid document on disk is moved
// aside first.
func (s *SettingsStore) Update(cfg models.Settings) (models.Settings, error) {
	if err := cfg.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("docstore: settings: %v: %w", err, apperr.ErrInvalidArgument)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return models.Settings{}, fmt.Errorf("docstore: encode settings: %w", err)
	}

	s.mu.Lock()
	if err := s.saveLocked(data); err != nil {
		s.mu.Unlock()
		return models.Settings{}, err
	}
	s.cur, s.sum = cfg, checksum.Sum(data)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, cfg)
	return cfg, nil
}

// saveLocked writes data under the document lock. Caller holds s.mu.
func (s *SettingsStore) saveLocked(data []byte) error {
	unlock, err := s.store.Lock(s.name)
	if err != nil {
		return fmt.Errorf("docstore: lock settings: %w", err)
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn("docstore: unlock settings", slog.String("error", err.Error()))
		}
	}()

	if disk, err := s.store.Read(s.name); err == nil && checksum.Sum(disk) != s.sum {
		if _, derr := decodeSettings(disk); derr != nil {
			s.pendingBackup = true
		}
	}
	if s.pendingBackup {
		backup, err := backupDocument(s.store, s.name, s.now())
		if err != nil {
			return fmt.Errorf("docstore: backup settings: %w", err)
		}
		if backup != "" {
			s.health.Backup = backup
			s.logger.Warn("docstore: invalid settings document preserved", slog.String("backup", backup))
		}
		s.pendingBackup = false
	}
	if err := s.store.Write(s.name, data); err != nil {
		return fmt.Errorf("docstore: save settings: %w", err)
	}
	return nil
}

// decodeSettings overlays data onto the defaults and validates the result.
func decodeSettings(data []byte) (models.Settings, error) {
	cfg := models.DefaultSettings()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.Settings{}, fmt.Errorf("%w: %v", apperr.ErrMalformedDocument, err)
	}
	if err := cfg.Validate(); err != nil {
		return models.Settings{}, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	return cfg, nil
}
