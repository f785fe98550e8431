package baccarat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fennwick/cardroom/pkg/cards"
	"github.com/fennwick/cardroom/pkg/entities"
)

func newTestGame(t *testing.T, rigged ...entities.Card) *Game {
	t.Helper()
	g := NewGame(Config{
		MinBet:        10,
		MaxBet:        500,
		StartingChips: 1000,
	})
	if len(rigged) > 0 {
		g.shoe = cards.NewShoeFromCards(rigged)
	}
	return g
}

// rig lays out cards in the order the shoe will deal them. The opening
// deal alternates player, banker, player, banker.
func rig(ranks ...entities.Rank) []entities.Card {
	suits := []entities.Suit{entities.Spades, entities.Hearts, entities.Clubs, entities.Diamonds}
	cards := make([]entities.Card, 0, len(ranks))
	for i, r := range ranks {
		cards = append(cards, entities.NewCard(r, suits[i%len(suits)]))
	}
	return cards
}

func TestPlaceBetValidation(t *testing.T) {
	g := newTestGame(t)

	assert.ErrorIs(t, g.PlaceBet("DRAGON", 100), ErrInvalidBetType)
	assert.ErrorIs(t, g.PlaceBet(BetPlayer, 0), ErrBetOutOfRange)
	assert.ErrorIs(t, g.PlaceBet(BetPlayer, 5), ErrBetOutOfRange, "total below table minimum")
	assert.ErrorIs(t, g.PlaceBet(BetPlayer, 501), ErrBetOutOfRange)

	require.NoError(t, g.SetBalance(100))
	require.NoError(t, g.PlaceBet(BetPlayer, 80))
	assert.ErrorIs(t, g.PlaceBet(BetTie, 30), ErrInsufficientChips, "stakes count across bet types")
}

func TestPlaceBetAccumulates(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.PlaceBet(BetPlayer, 30))
	require.NoError(t, g.PlaceBet(BetPlayer, 30))
	require.NoError(t, g.PlaceBet(BetTie, 10))

	assert.Equal(t, int64(60), g.Bets()[BetPlayer])
	assert.Equal(t, int64(70), g.TotalStake())
	assert.Equal(t, int64(1000), g.Balance(), "stake is not deducted until the deal")

	// Accumulation past the table maximum is rejected.
	assert.ErrorIs(t, g.PlaceBet(BetPlayer, 450), ErrBetOutOfRange)
}

func TestClearBets(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.PlaceBet(BetBanker, 50))
	require.NoError(t, g.ClearBets())
	assert.Empty(t, g.Bets())

	_, err := g.Deal(context.Background())
	assert.ErrorIs(t, err, ErrNoBets)
}

func TestDealPlayerNaturalShortCircuits(t *testing.T) {
	g := newTestGame(t, rig(
		entities.Four, entities.Two, // player 4, banker 2
		entities.Five, entities.Three, // player 9 natural, banker 5
	)...)
	require.NoError(t, g.PlaceBet(BetPlayer, 50))
	require.NoError(t, g.PlaceBet(BetTie, 50))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, WinnerPlayer, outcome.Winner)
	assert.Equal(t, 9, outcome.PlayerValue)
	assert.Equal(t, 5, outcome.BankerValue)
	assert.True(t, outcome.PlayerNatural)
	assert.False(t, outcome.BankerNatural)
	assert.Len(t, outcome.PlayerCards, 2, "natural takes no third card")
	assert.Len(t, outcome.BankerCards, 2, "banker 5 stands against a natural")

	require.Len(t, outcome.BetResults, 2)
	assert.Equal(t, int64(50), outcome.BetResults[0].Profit, "player bet wins even")
	assert.Equal(t, int64(-50), outcome.BetResults[1].Profit, "tie bet misses")
	assert.Equal(t, int64(0), outcome.NetProfit)
	assert.Equal(t, int64(1000), g.Balance())
	assert.Equal(t, PhaseBetting, g.Phase())
	assert.Empty(t, g.Bets(), "bets clear after the round")
}

func TestDealBankerNaturalStopsPlayerDraw(t *testing.T) {
	g := newTestGame(t, rig(
		entities.Two, entities.Four,
		entities.Three, entities.Five, // player 5, banker 9 natural
	)...)
	require.NoError(t, g.PlaceBet(BetBanker, 100))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	assert.True(t, outcome.BankerNatural)
	assert.Len(t, outcome.PlayerCards, 2, "player 5 would draw but the natural stops it")
	assert.Equal(t, WinnerBanker, outcome.Winner)
	assert.Equal(t, int64(95), outcome.NetProfit)
	assert.Equal(t, int64(1095), g.Balance())
}

func TestDealThirdCardBothDraw(t *testing.T) {
	g := newTestGame(t, rig(
		entities.Two, entities.Three,
		entities.Three, entities.Two, // player 5, banker 5
		entities.Four, // player third, value 4: banker 5 draws on 4-7
		entities.King, // banker third, banker stays 5
	)...)
	require.NoError(t, g.PlaceBet(BetPlayer, 100))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	assert.Len(t, outcome.PlayerCards, 3)
	assert.Len(t, outcome.BankerCards, 3)
	assert.Equal(t, 9, outcome.PlayerValue)
	assert.Equal(t, 5, outcome.BankerValue)
	assert.Equal(t, WinnerPlayer, outcome.Winner)
	assert.Equal(t, int64(1100), g.Balance())
}

func TestDealBankerStandsOnThreeAgainstEight(t *testing.T) {
	g := newTestGame(t, rig(
		entities.Ace, entities.Ace,
		entities.Two, entities.Two, // player 3, banker 3
		entities.Eight, // player third, value 8: banker 3 stands
	)...)
	require.NoError(t, g.PlaceBet(BetBanker, 100))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	assert.Len(t, outcome.PlayerCards, 3)
	assert.Len(t, outcome.BankerCards, 2, "banker 3 stands against a third-card 8")
	assert.Equal(t, 1, outcome.PlayerValue)
	assert.Equal(t, 3, outcome.BankerValue)
	assert.Equal(t, WinnerBanker, outcome.Winner)
}

func TestDealTiePushesMainBets(t *testing.T) {
	g := newTestGame(t, rig(
		entities.King, entities.Queen,
		entities.Seven, entities.Seven, // player 7, banker 7
	)...)
	require.NoError(t, g.PlaceBet(BetPlayer, 60))
	require.NoError(t, g.PlaceBet(BetBanker, 40))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, WinnerTie, outcome.Winner)
	assert.Equal(t, int64(0), outcome.NetProfit)
	assert.Equal(t, int64(1000), g.Balance(), "player and banker push on a tie")
}

func TestDealPairBetsSettleIndependently(t *testing.T) {
	g := newTestGame(t, rig(
		entities.Eight, entities.Four,
		entities.Eight, entities.Three, // player pair of eights, value 6; banker 7
	)...)
	require.NoError(t, g.PlaceBet(BetPlayerPair, 10))
	require.NoError(t, g.PlaceBet(BetBankerPair, 10))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, WinnerBanker, outcome.Winner)
	assert.True(t, outcome.PlayerPair)
	assert.False(t, outcome.BankerPair)
	assert.Equal(t, int64(110-10), outcome.NetProfit, "player pair pays 11:1 despite the banker win")
	assert.Equal(t, int64(1100), g.Balance())
}

func TestHistoryIsBounded(t *testing.T) {
	g := newTestGame(t)
	ctx := context.Background()
	for i := 0; i < HistoryLimit+5; i++ {
		require.NoError(t, g.PlaceBet(BetPlayer, 10))
		_, err := g.Deal(ctx)
		require.NoError(t, err)
		require.NoError(t, g.SetBalance(1000))
	}
	assert.Len(t, g.History(), HistoryLimit)
}

func TestDealSavesHistoryRecord(t *testing.T) {
	repo := &recordingRepo{}
	g := NewGame(Config{
		MinBet:        10,
		MaxBet:        500,
		StartingChips: 1000,
		History:       repo,
	})
	g.shoe = cards.NewShoeFromCards(rig(
		entities.Four, entities.Two,
		entities.Five, entities.Three,
	))
	require.NoError(t, g.PlaceBet(BetPlayer, 50))

	outcome, err := g.Deal(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	record := repo.saved[0]
	assert.Equal(t, outcome.ID, record.ID)
	assert.Equal(t, entities.GameTypeBaccarat, record.GameType)
	assert.Equal(t, "win", record.Outcome)
	assert.Equal(t, int64(50), record.NetProfit)
	assert.Equal(t, 1, record.HandCount)
	assert.Equal(t, 9, record.PlayerScore)
	assert.Equal(t, 5, record.HouseScore)
}

func TestSetBalance(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.SetBalance(250))
	assert.Equal(t, int64(250), g.Balance())
	assert.ErrorIs(t, g.SetBalance(-1), ErrNegativeBalance)
}

func TestUpdateBetLimits(t *testing.T) {
	g := newTestGame(t)
	require.NoError(t, g.UpdateBetLimits(1, 50))
	assert.ErrorIs(t, g.PlaceBet(BetPlayer, 51), ErrBetOutOfRange)
	require.NoError(t, g.PlaceBet(BetPlayer, 1))

	assert.ErrorIs(t, g.UpdateBetLimits(0, 50), ErrBetOutOfRange)
	assert.ErrorIs(t, g.UpdateBetLimits(50, 10), ErrBetOutOfRange)
}

type recordingRepo struct {
	saved []*entities.RoundRecord
}

func (r *recordingRepo) SaveRound(_ context.Context, record *entities.RoundRecord) error {
	r.saved = append(r.saved, record)
	return nil
}

func (r *recordingRepo) RecentRounds(_ context.Context, _ entities.GameType, _ int) ([]*entities.RoundRecord, error) {
	return nil, nil
}

func (r *recordingRepo) Close() error { return nil }
