package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennwick/cardroom/pkg/entities"
)

func record(id string, gameType entities.GameType, net int64) *entities.RoundRecord {
	return &entities.RoundRecord{
		ID:          id,
		GameType:    gameType,
		Outcome:     "win",
		NetProfit:   net,
		HandCount:   1,
		CompletedAt: time.Now(),
	}
}

func TestMemoryRepositorySaveAndRecent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRound(ctx, record("r1", entities.GameTypeBlackjack, 100)))
	require.NoError(t, repo.SaveRound(ctx, record("r2", entities.GameTypeBlackjack, -50)))
	require.NoError(t, repo.SaveRound(ctx, record("b1", entities.GameTypeBaccarat, 25)))

	rounds, err := repo.RecentRounds(ctx, entities.GameTypeBlackjack, 10)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "r2", rounds[0].ID, "newest first")
	assert.Equal(t, "r1", rounds[1].ID)

	rounds, err = repo.RecentRounds(ctx, entities.GameTypeBaccarat, 10)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, "b1", rounds[0].ID)
}

func TestMemoryRepositoryLimit(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveRound(ctx, record(fmt.Sprintf("r%d", i), entities.GameTypeBlackjack, 0)))
	}

	rounds, err := repo.RecentRounds(ctx, entities.GameTypeBlackjack, 2)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "r4", rounds[0].ID)
	assert.Equal(t, "r3", rounds[1].ID)

	rounds, err = repo.RecentRounds(ctx, entities.GameTypeBlackjack, 0)
	require.NoError(t, err)
	assert.Len(t, rounds, 5, "non-positive limit returns everything")
}

func TestMemoryRepositoryEvictsOldest(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < DefaultMemoryLimit+3; i++ {
		require.NoError(t, repo.SaveRound(ctx, record(fmt.Sprintf("r%d", i), entities.GameTypeBlackjack, 0)))
	}

	rounds, err := repo.RecentRounds(ctx, entities.GameTypeBlackjack, 0)
	require.NoError(t, err)
	require.Len(t, rounds, DefaultMemoryLimit)
	assert.Equal(t, fmt.Sprintf("r%d", DefaultMemoryLimit+2), rounds[0].ID)
	assert.Equal(t, "r3", rounds[len(rounds)-1].ID, "oldest three evicted")
}

func TestMemoryRepositoryCopiesRecords(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	original := record("r1", entities.GameTypeBlackjack, 100)
	require.NoError(t, repo.SaveRound(ctx, original))
	original.NetProfit = -999

	rounds, err := repo.RecentRounds(ctx, entities.GameTypeBlackjack, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rounds[0].NetProfit, "stored record is isolated from the caller")

	rounds[0].NetProfit = 777
	again, err := repo.RecentRounds(ctx, entities.GameTypeBlackjack, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), again[0].NetProfit, "returned records are copies")
}

func TestMemoryRepositoryClose(t *testing.T) {
	repo := NewMemoryRepository()
	assert.NoError(t, repo.Close())
}
