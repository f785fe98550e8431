package baccarat

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fennwick/cardroom/pkg/cards"
	"github.com/fennwick/cardroom/pkg/entities"
	"github.com/fennwick/cardroom/pkg/repositories/history"
)

var (
	ErrInvalidAction     = errors.New("invalid action for current game phase")
	ErrInvalidBetType    = errors.New("invalid bet type")
	ErrBetOutOfRange     = errors.New("bet amount outside table limits")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrNoBets            = errors.New("no bets placed")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
)

// Phase is the baccarat round state machine. Deal drives a round
// through dealing, the third-card phases and resolution synchronously,
// returning the engine to betting before it yields.
type Phase string

const (
	PhaseBetting     Phase = "BETTING"
	PhaseDealing     Phase = "DEALING"
	PhasePlayerThird Phase = "PLAYER_THIRD"
	PhaseBankerThird Phase = "BANKER_THIRD"
	PhaseResolution  Phase = "RESOLUTION"
)

// HistoryLimit bounds the in-memory outcome history.
const HistoryLimit = 20

// RoundOutcome is the immutable record of a settled round.
type RoundOutcome struct {
	ID            string
	Winner        Winner
	PlayerCards   []entities.Card
	BankerCards   []entities.Card
	PlayerValue   int
	BankerValue   int
	PlayerNatural bool
	BankerNatural bool
	PlayerPair    bool
	BankerPair    bool
	BetResults    []BetResult
	NetProfit     int64
	CompletedAt   time.Time
}

// Config carries the dependencies and table limits for a new game.
type Config struct {
	MinBet        int64
	MaxBet        int64
	StartingChips int64
	// ReshuffleFraction is the remaining-cards fraction below which the
	// shoe is rebuilt between rounds; zero uses the default.
	ReshuffleFraction float64
	RNG               *rand.Rand
	History           history.Repository
	Logger            *log.Logger
}

// Game is the baccarat engine. It owns the shoe, the current bets and
// the in-memory chip balance, and is the sole mutator of all three.
// A Game is not safe for concurrent use; a session drives exactly one.
type Game struct {
	shoe    *cards.Shoe
	phase   Phase
	bets    map[BetType]int64
	balance int64
	minBet  int64
	maxBet  int64
	history []*RoundOutcome
	repo    history.Repository
	logger  *log.Logger
}

// NewGame creates a baccarat game with a fresh shuffled shoe.
func NewGame(cfg Config) *Game {
	fraction := cfg.ReshuffleFraction
	if fraction <= 0 || fraction >= 1 {
		fraction = DefaultReshuffleFraction
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	threshold := int(float64(52*ShoeDecks) * fraction)
	return &Game{
		shoe:    cards.NewShoe(ShoeDecks, threshold, cfg.RNG),
		phase:   PhaseBetting,
		bets:    make(map[BetType]int64),
		balance: cfg.StartingChips,
		minBet:  cfg.MinBet,
		maxBet:  cfg.MaxBet,
		repo:    cfg.History,
		logger:  logger.WithPrefix("baccarat"),
	}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Balance returns the current in-memory chip balance.
func (g *Game) Balance() int64 {
	return g.balance
}

// SetBalance overwrites the chip balance. Only legal between rounds.
func (g *Game) SetBalance(balance int64) error {
	if g.phase != PhaseBetting {
		return ErrInvalidAction
	}
	if balance < 0 {
		return ErrNegativeBalance
	}
	g.balance = balance
	return nil
}

// UpdateBetLimits replaces the table limits. Only legal between rounds.
func (g *Game) UpdateBetLimits(minBet, maxBet int64) error {
	if g.phase != PhaseBetting {
		return ErrInvalidAction
	}
	if minBet < 1 || maxBet < minBet {
		return ErrBetOutOfRange
	}
	g.minBet = minBet
	g.maxBet = maxBet
	return nil
}

// Bets returns a copy of the currently placed bets.
func (g *Game) Bets() map[BetType]int64 {
	bets := make(map[BetType]int64, len(g.bets))
	for t, amount := range g.bets {
		bets[t] = amount
	}
	return bets
}

// TotalStake returns the sum of all placed bets.
func (g *Game) TotalStake() int64 {
	var total int64
	for _, amount := range g.bets {
		total += amount
	}
	return total
}

// PlaceBet stakes chips on a bet type. Repeated placements on the same
// type accumulate. The stake is not deducted until Deal.
func (g *Game) PlaceBet(betType BetType, amount int64) error {
	if g.phase != PhaseBetting {
		return ErrInvalidAction
	}
	if !ValidBetType(betType) {
		return ErrInvalidBetType
	}
	total := g.bets[betType] + amount
	if amount < 1 || total < g.minBet || total > g.maxBet {
		return ErrBetOutOfRange
	}
	if g.TotalStake()+amount > g.balance {
		return ErrInsufficientChips
	}
	g.bets[betType] = total
	return nil
}

// ClearBets removes all placed bets.
func (g *Game) ClearBets() error {
	if g.phase != PhaseBetting {
		return ErrInvalidAction
	}
	g.bets = make(map[BetType]int64)
	return nil
}

// Deal plays a full round: deduct the stake, deal the initial four
// cards in player, banker, player, banker order, apply the third-card
// rules unless a natural short-circuits them, then settle every bet and
// credit the balance. The shoe is reshuffled before any card is dealt,
// never after.
func (g *Game) Deal(ctx context.Context) (*RoundOutcome, error) {
	if g.phase != PhaseBetting {
		return nil, ErrInvalidAction
	}
	if len(g.bets) == 0 {
		return nil, ErrNoBets
	}
	stake := g.TotalStake()
	if stake > g.balance {
		return nil, ErrInsufficientChips
	}

	if g.shoe.ReshuffleIfNeeded() {
		g.logger.Info("shoe reshuffled", "remaining", g.shoe.Remaining())
	}

	g.balance -= stake
	g.phase = PhaseDealing

	playerCards := []entities.Card{g.shoe.Deal()}
	bankerCards := []entities.Card{g.shoe.Deal()}
	playerCards = append(playerCards, g.shoe.Deal())
	bankerCards = append(bankerCards, g.shoe.Deal())

	playerPair := IsPair(playerCards)
	bankerPair := IsPair(bankerCards)
	playerNatural := IsNatural(playerCards)
	bankerNatural := IsNatural(bankerCards)

	// A natural on either side skips all third-card logic.
	if !playerNatural && !bankerNatural {
		playerDrew := false
		var playerThird entities.Card
		if PlayerDraws(HandValue(playerCards)) {
			g.phase = PhasePlayerThird
			playerThird = g.shoe.Deal()
			playerCards = append(playerCards, playerThird)
			playerDrew = true
		}

		bankerValue := HandValue(bankerCards)
		draws := false
		if playerDrew {
			draws = BankerDraws(bankerValue, CardValue(playerThird))
		} else {
			draws = BankerDrawsAgainstStand(bankerValue)
		}
		if draws {
			g.phase = PhaseBankerThird
			bankerCards = append(bankerCards, g.shoe.Deal())
		}
	}

	g.phase = PhaseResolution

	playerValue := HandValue(playerCards)
	bankerValue := HandValue(bankerCards)
	winner := DetermineWinner(playerValue, bankerValue)

	betResults := make([]BetResult, 0, len(g.bets))
	var netProfit, credit int64
	for _, betType := range BetTypes {
		amount, placed := g.bets[betType]
		if !placed {
			continue
		}
		profit := BetProfit(betType, amount, winner, playerPair, bankerPair)
		betResults = append(betResults, BetResult{Type: betType, Amount: amount, Profit: profit})
		netProfit += profit
		credit += amount + profit
	}
	g.balance += credit

	outcome := &RoundOutcome{
		ID:            uuid.New().String(),
		Winner:        winner,
		PlayerCards:   playerCards,
		BankerCards:   bankerCards,
		PlayerValue:   playerValue,
		BankerValue:   bankerValue,
		PlayerNatural: playerNatural,
		BankerNatural: bankerNatural,
		PlayerPair:    playerPair,
		BankerPair:    bankerPair,
		BetResults:    betResults,
		NetProfit:     netProfit,
		CompletedAt:   time.Now(),
	}

	g.history = append(g.history, outcome)
	if len(g.history) > HistoryLimit {
		g.history = g.history[len(g.history)-HistoryLimit:]
	}

	if g.repo != nil {
		record := &entities.RoundRecord{
			ID:          outcome.ID,
			GameType:    entities.GameTypeBaccarat,
			Outcome:     outcomeLabel(netProfit),
			NetProfit:   netProfit,
			HandCount:   1,
			PlayerScore: playerValue,
			HouseScore:  bankerValue,
			CompletedAt: outcome.CompletedAt,
		}
		if err := g.repo.SaveRound(ctx, record); err != nil {
			g.logger.Warn("failed to save round record", "err", err)
		}
	}

	g.logger.Info("round settled",
		"winner", winner,
		"player", playerValue,
		"banker", bankerValue,
		"net", netProfit,
		"balance", g.balance)

	g.bets = make(map[BetType]int64)
	g.phase = PhaseBetting
	return outcome, nil
}

// History returns a copy of the bounded outcome history, oldest first.
func (g *Game) History() []*RoundOutcome {
	out := make([]*RoundOutcome, len(g.history))
	copy(out, g.history)
	return out
}

// ShoeRemaining returns how many cards are left in the shoe.
func (g *Game) ShoeRemaining() int {
	return g.shoe.Remaining()
}

func outcomeLabel(netProfit int64) string {
	switch {
	case netProfit > 0:
		return "win"
	case netProfit < 0:
		return "loss"
	default:
		return "push"
	}
}
