package settings

import (
	"context"
	"sync"

	"github.com/fennwick/cardroom/pkg/entities"
)

// MemoryStore implements Store for anonymous sessions; settings last
// only as long as the process.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*entities.Settings
}

// NewMemoryStore creates an empty in-memory settings store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*entities.Settings)}
}

// Load retrieves the settings for a profile key
func (m *MemoryStore) Load(ctx context.Context, key string) (*entities.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.profiles[key]
	if !ok {
		return nil, ErrNotFound
	}
	settingsCopy := *s
	return &settingsCopy, nil
}

// Save creates or replaces the settings for a profile key
func (m *MemoryStore) Save(ctx context.Context, key string, s *entities.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	settingsCopy := *s
	m.profiles[key] = &settingsCopy
	return nil
}
