package settings

import (
	"context"
	"errors"

	"github.com/fennwick/cardroom/pkg/entities"
)

var ErrNotFound = errors.New("settings not found")

// Store persists table settings keyed by profile. The engines never
// touch a store directly; settings are loaded, clamped and handed over
// as plain values. Different backends serve signed-in (file) and
// anonymous (memory) sessions.
type Store interface {
	// Load retrieves the settings for a profile key
	Load(ctx context.Context, key string) (*entities.Settings, error)

	// Save creates or replaces the settings for a profile key
	Save(ctx context.Context, key string, s *entities.Settings) error
}

// LoadOrDefault returns clamped settings for the key, falling back to
// the defaults when none are stored.
func LoadOrDefault(ctx context.Context, store Store, key string) (*entities.Settings, error) {
	s, err := store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		s = entities.DefaultSettings()
	} else if err != nil {
		return nil, err
	}
	s.Clamp()
	return s, nil
}
