package history

import (
	"context"
	"sync"

	"github.com/fennwick/cardroom/pkg/entities"
)

// DefaultMemoryLimit bounds the in-memory history per game type.
const DefaultMemoryLimit = 200

// MemoryRepository implements Repository using bounded in-memory storage
type MemoryRepository struct {
	mu     sync.RWMutex
	rounds map[entities.GameType][]*entities.RoundRecord
	limit  int
}

// NewMemoryRepository creates a new in-memory history repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rounds: make(map[entities.GameType][]*entities.RoundRecord),
		limit:  DefaultMemoryLimit,
	}
}

// SaveRound appends a round, evicting the oldest once the bound is hit
func (r *MemoryRepository) SaveRound(ctx context.Context, record *entities.RoundRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recordCopy := *record
	rounds := append(r.rounds[record.GameType], &recordCopy)
	if len(rounds) > r.limit {
		rounds = rounds[len(rounds)-r.limit:]
	}
	r.rounds[record.GameType] = rounds
	return nil
}

// RecentRounds returns up to limit rounds, newest first
func (r *MemoryRepository) RecentRounds(ctx context.Context, gameType entities.GameType, limit int) ([]*entities.RoundRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rounds := r.rounds[gameType]
	if limit <= 0 || limit > len(rounds) {
		limit = len(rounds)
	}

	results := make([]*entities.RoundRecord, 0, limit)
	for i := len(rounds) - 1; i >= len(rounds)-limit; i-- {
		recordCopy := *rounds[i]
		results = append(results, &recordCopy)
	}
	return results, nil
}

// Close is a no-op for the memory repository
func (r *MemoryRepository) Close() error {
	return nil
}
