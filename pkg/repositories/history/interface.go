package history

import (
	"context"

	"github.com/fennwick/cardroom/pkg/entities"
)

// Repository defines the interface for round history persistence
type Repository interface {
	// SaveRound persists a settled round
	SaveRound(ctx context.Context, record *entities.RoundRecord) error

	// RecentRounds retrieves the most recent rounds for a game type,
	// newest first
	RecentRounds(ctx context.Context, gameType entities.GameType, limit int) ([]*entities.RoundRecord, error)

	// Close releases any resources held by the repository
	Close() error
}
