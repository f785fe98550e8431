package balancesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fennwick/cardroom/pkg/entities"
	"github.com/fennwick/cardroom/pkg/repositories/balance"
	mock_balance "github.com/fennwick/cardroom/pkg/repositories/balance/mock"
)

type fakeGame struct {
	balance int64
}

func (f *fakeGame) Balance() int64 { return f.balance }

func (f *fakeGame) SetBalance(b int64) error {
	if b < 0 {
		return errors.New("negative balance")
	}
	f.balance = b
	return nil
}

func newTestController(t *testing.T, game *fakeGame, synced int64) (*Controller, *mock_balance.MockClient, *quartz.Mock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mock_balance.NewMockClient(ctrl)
	clock := quartz.NewMock(t)
	c := NewController(Config{
		Client:        client,
		Game:          game,
		GameType:      entities.GameTypeBlackjack,
		ServerBalance: synced,
		Clock:         clock,
	})
	t.Cleanup(c.Close)
	return c, client, clock
}

func rateLimited(retryAfter time.Duration) *balance.APIError {
	return &balance.APIError{
		Status:     429,
		Code:       balance.CodeRateLimited,
		RetryAfter: retryAfter,
	}
}

func winRound(id string, profit, bet int64) RoundSummary {
	return RoundSummary{
		RoundID:    id,
		Outcome:    balance.OutcomeWin,
		HandCount:  1,
		Wins:       1,
		BiggestWin: profit,
		MaxBet:     bet,
	}
}

func TestRoundCompletedConfirmsAndAdvancesWatermark(t *testing.T) {
	game := &fakeGame{balance: 1150}
	c, client, _ := newTestController(t, game, 1000)

	var captured *balance.ChipUpdateRequest
	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *balance.ChipUpdateRequest) (*balance.ChipUpdateResponse, error) {
			captured = req
			return &balance.ChipUpdateResponse{Success: true, Balance: 1150}, nil
		})

	err := c.RoundCompleted(context.Background(), winRound("r1", 150, 100))
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.Equal(t, int64(1000), captured.PreviousBalance)
	assert.Equal(t, int64(150), captured.Delta)
	assert.Equal(t, entities.GameTypeBlackjack, captured.GameType)
	assert.Equal(t, balance.OutcomeWin, captured.Outcome)
	assert.Equal(t, 1, captured.WinsIncrement)
	assert.Equal(t, int64(150), captured.BiggestWinCandidate)
	assert.Equal(t, int64(100), captured.MaxBet)

	assert.Equal(t, int64(1150), c.ServerSyncedBalance())
	pending := c.Pending()
	assert.True(t, pending.empty(), "confirmed stats are cleared")
}

func TestZeroDeltaWithPendingStatsStillSyncs(t *testing.T) {
	game := &fakeGame{balance: 1000}
	c, client, _ := newTestController(t, game, 1000)

	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *balance.ChipUpdateRequest) (*balance.ChipUpdateResponse, error) {
			assert.Equal(t, int64(0), req.Delta)
			assert.Equal(t, 1, req.HandCount)
			return &balance.ChipUpdateResponse{Success: true, Balance: 1000}, nil
		})

	err := c.RoundCompleted(context.Background(), RoundSummary{
		RoundID:   "r1",
		Outcome:   balance.OutcomePush,
		HandCount: 1,
		MaxBet:    100,
	})
	require.NoError(t, err)
}

func TestFlushWithNothingToSyncSkipsTheCall(t *testing.T) {
	game := &fakeGame{balance: 1000}
	c, _, _ := newTestController(t, game, 1000)

	// No EXPECT set: any call would fail the test.
	require.NoError(t, c.Flush(context.Background()))
}

func TestRetryFiresOnTheClock(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, clock := newTestController(t, game, 1000)

	gomock.InOrder(
		client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
			Return(nil, rateLimited(time.Second)),
		client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *balance.ChipUpdateRequest) (*balance.ChipUpdateResponse, error) {
				assert.Equal(t, int64(100), req.Delta)
				return &balance.ChipUpdateResponse{Success: true, Balance: 1100}, nil
			}),
	)

	err := c.RoundCompleted(context.Background(), winRound("r1", 100, 50))
	require.NoError(t, err, "a scheduled retry is not an error")
	assert.Equal(t, int64(1000), c.ServerSyncedBalance(), "watermark holds until confirmed")

	// Retry-After plus the safety buffer.
	clock.Advance(time.Second + retryBuffer).MustWait(context.Background())

	assert.Equal(t, int64(1100), c.ServerSyncedBalance())
	pending := c.Pending()
	assert.True(t, pending.empty())
}

func TestInterveningRoundCollapsesIntoOneDelta(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, clock := newTestController(t, game, 1000)

	var captured *balance.ChipUpdateRequest
	gomock.InOrder(
		client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
			Return(nil, rateLimited(0)),
		client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *balance.ChipUpdateRequest) (*balance.ChipUpdateResponse, error) {
				captured = req
				return &balance.ChipUpdateResponse{Success: true, Balance: req.PreviousBalance + req.Delta}, nil
			}),
	)

	require.NoError(t, c.RoundCompleted(context.Background(), winRound("r1", 100, 50)))

	// A second round settles before the retry timer fires. Its sync must
	// cancel the timer and carry the net effect of both rounds.
	game.balance = 1300
	require.NoError(t, c.RoundCompleted(context.Background(), winRound("r2", 200, 80)))

	require.NotNil(t, captured)
	assert.Equal(t, int64(1000), captured.PreviousBalance)
	assert.Equal(t, int64(300), captured.Delta, "both rounds collapse into one delta")
	assert.Equal(t, 2, captured.WinsIncrement)
	assert.Equal(t, 2, captured.HandCount)
	assert.Equal(t, int64(200), captured.BiggestWinCandidate, "maximum, not a sum")
	assert.Equal(t, int64(80), captured.MaxBet)

	assert.Equal(t, int64(1300), c.ServerSyncedBalance())

	// The cancelled timer must never fire; the mock would flag a third
	// call as unexpected.
	clock.Advance(time.Minute).MustWait(context.Background())
}

func TestRateLimitRetriesExhaust(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, clock := newTestController(t, game, 1000)

	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		Return(nil, rateLimited(0)).
		Times(maxSyncAttempts)

	require.NoError(t, c.RoundCompleted(context.Background(), winRound("r1", 100, 50)))
	clock.Advance(defaultRetryAfter + retryBuffer).MustWait(context.Background())
	clock.Advance(defaultRetryAfter + retryBuffer).MustWait(context.Background())

	// No further timer is armed once the attempt budget is spent.
	clock.Advance(time.Minute).MustWait(context.Background())

	assert.Equal(t, int64(1000), c.ServerSyncedBalance())
	pending := c.Pending()
	assert.Equal(t, 1, pending.Wins, "unconfirmed stats survive for the next cycle")
	assert.Equal(t, int64(1100), game.balance, "optimistic balance is kept")

	// The next round starts a fresh cycle carrying the backlog.
	var captured *balance.ChipUpdateRequest
	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *balance.ChipUpdateRequest) (*balance.ChipUpdateResponse, error) {
			captured = req
			return &balance.ChipUpdateResponse{Success: true, Balance: 1250}, nil
		})
	game.balance = 1250
	require.NoError(t, c.RoundCompleted(context.Background(), winRound("r2", 150, 60)))

	require.NotNil(t, captured)
	assert.Equal(t, int64(250), captured.Delta)
	assert.Equal(t, 2, captured.WinsIncrement)
	assert.Equal(t, int64(1250), c.ServerSyncedBalance())
}

func TestBalanceMismatchAdoptsServerBalance(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, _ := newTestController(t, game, 1000)

	server := int64(800)
	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		Return(nil, &balance.APIError{
			Status:         409,
			Code:           balance.CodeBalanceMismatch,
			CurrentBalance: &server,
		})

	err := c.RoundCompleted(context.Background(), winRound("r1", 100, 50))
	require.Error(t, err)

	assert.Equal(t, int64(800), c.ServerSyncedBalance(), "server word is final")
	assert.Equal(t, int64(800), game.balance, "live balance overwritten")
	pending := c.Pending()
	assert.True(t, pending.empty())
}

func TestNetworkErrorRevertsToWatermark(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, _ := newTestController(t, game, 1000)

	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused"))

	err := c.RoundCompleted(context.Background(), winRound("r1", 100, 50))
	require.Error(t, err)

	assert.Equal(t, int64(1000), c.ServerSyncedBalance())
	assert.Equal(t, int64(1000), game.balance, "optimistic change rolled back")
	pending := c.Pending()
	assert.True(t, pending.empty())
}

func TestNonRetryableRejectionRevertsToWatermark(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, _ := newTestController(t, game, 1000)

	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		Return(nil, &balance.APIError{Status: 400, Code: balance.CodeInvalidDelta})

	err := c.RoundCompleted(context.Background(), winRound("r1", 100, 50))
	require.Error(t, err)
	assert.Equal(t, int64(1000), game.balance)
}

func TestFoldIsIdempotentPerRound(t *testing.T) {
	game := &fakeGame{balance: 1100}
	c, client, _ := newTestController(t, game, 1000)

	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		Return(&balance.ChipUpdateResponse{Success: true, Balance: 1100}, nil)

	round := winRound("r1", 100, 50)
	require.NoError(t, c.RoundCompleted(context.Background(), round))

	// Replaying the same round contributes nothing and, with a zero
	// delta, triggers no second call.
	require.NoError(t, c.RoundCompleted(context.Background(), round))
	pending := c.Pending()
	assert.True(t, pending.empty())
}

func TestPendingStatsKeepMaximums(t *testing.T) {
	game := &fakeGame{balance: 1000}
	c, client, _ := newTestController(t, game, 1000)

	client.EXPECT().UpdateChips(gomock.Any(), gomock.Any()).
		Return(nil, rateLimited(time.Hour)).
		Times(2)

	game.balance = 1300
	require.NoError(t, c.RoundCompleted(context.Background(), winRound("r1", 300, 200)))
	game.balance = 1400
	require.NoError(t, c.RoundCompleted(context.Background(), winRound("r2", 100, 80)))

	pending := c.Pending()
	assert.Equal(t, 2, pending.Wins)
	assert.Equal(t, 2, pending.Hands)
	assert.Equal(t, int64(300), pending.BiggestWin, "keeps the larger earlier win")
	assert.Equal(t, int64(200), pending.MaxBet)
	assert.Equal(t, balance.OutcomeWin, pending.LastOutcome)
}
