package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fennwick/cardroom/pkg/entities"
)

// FileStore implements Store on top of a single JSON file holding every
// profile. Writes go through a temp file and rename so a crash can
// never leave a half-written settings file.
type FileStore struct {
	path     string
	mu       sync.Mutex
	profiles map[string]*entities.Settings
}

// NewFileStore creates a file-backed settings store, loading any
// existing profiles from path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		profiles: make(map[string]*entities.Settings),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// Load retrieves the settings for a profile key
func (s *FileStore) Load(ctx context.Context, key string) (*entities.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.profiles[key]
	if !ok {
		return nil, ErrNotFound
	}
	settingsCopy := *stored
	return &settingsCopy, nil
}

// Save creates or replaces the settings for a profile key
func (s *FileStore) Save(ctx context.Context, key string, settings *entities.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settingsCopy := *settings
	s.profiles[key] = &settingsCopy
	return s.flush()
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &s.profiles)
}

func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("error creating settings directory: %w", err)
	}
	data, err := json.MarshalIndent(s.profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}
