package blackjack

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
	ErrBetOutOfRange     = errors.New("bet amount outside table limits")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrSplitMismatch     = errors.New("split requires two cards of matching rank")
	ErrAlreadySplit      = errors.New("hand has already been split")
	ErrDoubleDownValue   = errors.New("double down requires a two-card hand worth 9 to 11")
	ErrNegativeBalance   = errors.New("balance cannot be negative")
)

// Phase is the blackjack round state machine.
type Phase string

const (
	PhaseBetting    Phase = "BETTING"
	PhaseDealing    Phase = "DEALING"
	PhasePlayerTurn Phase = "PLAYER_TURN"
	PhaseDealerTurn Phase = "DEALER_TURN"
	PhaseComplete   Phase = "COMPLETE"
)

// Outcome represents the result of a single hand
type Outcome string

const (
	OutcomeWin       Outcome = "WIN"
	OutcomeLose      Outcome = "LOSE"
	OutcomePush      Outcome = "PUSH"
	OutcomeBlackjack Outcome = "BLACKJACK"
)

// IsWin returns true if this outcome represents a win
func (o Outcome) IsWin() bool {
	return o == OutcomeWin || o == OutcomeBlackjack
}

// HandOutcome is the settled result of one player hand. Payout is the
// total credited back to the balance (stake included); Profit is the
// signed chip change for the hand.
type HandOutcome struct {
	Result      Outcome
	Bet         int64
	Payout      int64
	Profit      int64
	PlayerValue int
	DealerValue int
	FromSplit   bool
}

// Config carries the dependencies and table limits for a new game.
type Config struct {
	MinBet        int64
	MaxBet        int64
	StartingChips int64
	RNG           *rand.Rand
	History       history.Repository
	Logger        *log.Logger
}

// Game is the blackjack engine. It owns the shoe, the player and dealer
// hands and the in-memory chip balance, and is the sole mutator of all
// of them. A Game is not safe for concurrent use; a session drives
// exactly one.
type Game struct {
	shoe    *cards.Shoe
	phase   Phase
	hands   []*Hand
	dealer  *Hand
	active  int
	balance int64
	minBet  int64
	maxBet  int64
	roundID string
	repo    history.Repository
	logger  *log.Logger
}

// NewGame creates a blackjack game with a fresh shuffled shoe.
func NewGame(cfg Config) *Game {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Game{
		shoe:    cards.NewShoe(ShoeDecks, ReshuffleThreshold, cfg.RNG),
		phase:   PhaseBetting,
		balance: cfg.StartingChips,
		minBet:  cfg.MinBet,
		maxBet:  cfg.MaxBet,
		repo:    cfg.History,
		logger:  logger.WithPrefix("blackjack"),
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

// Hands returns the player hands of the current round. Callers must
// treat them as read-only.
func (g *Game) Hands() []*Hand {
	return g.hands
}

// Dealer returns the dealer hand. Callers must treat it as read-only.
func (g *Game) Dealer() *Hand {
	return g.dealer
}

// ActiveHand returns the index of the hand currently being played.
func (g *Game) ActiveHand() int {
	return g.active
}

// RoundID returns the identifier of the round in progress, empty
// between rounds.
func (g *Game) RoundID() string {
	return g.roundID
}

// PlaceBet validates the stake against the table limits and the
// balance, deducts it and moves the round to dealing.
func (g *Game) PlaceBet(amount int64) error {
	if g.phase != PhaseBetting {
		return ErrInvalidAction
	}
	if amount < g.minBet || amount > g.maxBet {
		return ErrBetOutOfRange
	}
	if amount > g.balance {
		return ErrInsufficientChips
	}
	g.balance -= amount
	g.hands = []*Hand{NewHand(amount)}
	g.dealer = NewHand(0)
	g.active = 0
	g.roundID = uuid.New().String()
	g.phase = PhaseDealing
	return nil
}

// Deal deals two cards each to player and dealer, alternating. A
// natural blackjack on either side jumps straight to complete with no
// player actions. The shoe is reshuffled before any card is dealt,
// never after.
func (g *Game) Deal() error {
	if g.phase != PhaseDealing {
		return ErrInvalidAction
	}
	if g.shoe.ReshuffleIfNeeded() {
		g.logger.Info("shoe reshuffled", "remaining", g.shoe.Remaining())
	}

	hand := g.hands[0]
	for i := 0; i < 2; i++ {
		hand.AddCard(g.shoe.Deal())
		g.dealer.AddCard(g.shoe.Deal())
	}

	if IsBlackjack(hand.Cards) || IsBlackjack(g.dealer.Cards) {
		g.phase = PhaseComplete
		return nil
	}
	g.phase = PhasePlayerTurn
	return nil
}

// Hit adds a card to the active hand. A bust advances to the next split
// hand, or ends the player turn when none remain.
func (g *Game) Hit() error {
	if g.phase != PhasePlayerTurn {
		return ErrInvalidAction
	}
	hand := g.hands[g.active]
	hand.AddCard(g.shoe.Deal())
	if hand.Status == StatusBust {
		g.advanceHand()
	}
	return nil
}

// Stand ends play on the active hand and advances to the next split
// hand or the dealer turn.
func (g *Game) Stand() error {
	if g.phase != PhasePlayerTurn {
		return ErrInvalidAction
	}
	g.hands[g.active].Status = StatusStand
	g.advanceHand()
	return nil
}

// CanDoubleDown reports whether the active hand is eligible to double.
func (g *Game) CanDoubleDown() bool {
	if g.phase != PhasePlayerTurn {
		return false
	}
	hand := g.hands[g.active]
	value := hand.Value().Value
	return len(hand.Cards) == 2 && value >= 9 && value <= 11 && g.balance >= hand.Bet
}

// DoubleDown doubles the stake of the active two-card hand worth 9 to
// 11, deals exactly one card and then behaves like a forced stand.
func (g *Game) DoubleDown() error {
	if g.phase != PhasePlayerTurn {
		return ErrInvalidAction
	}
	hand := g.hands[g.active]
	value := hand.Value().Value
	if len(hand.Cards) != 2 || value < 9 || value > 11 {
		return ErrDoubleDownValue
	}
	if g.balance < hand.Bet {
		return ErrInsufficientChips
	}
	g.balance -= hand.Bet
	hand.Bet *= 2
	hand.DoubledDown = true
	hand.AddCard(g.shoe.Deal())
	if hand.Status != StatusBust {
		hand.Status = StatusStand
	}
	g.advanceHand()
	return nil
}

// CanSplit reports whether the active hand is eligible to split.
func (g *Game) CanSplit() bool {
	if g.phase != PhasePlayerTurn || len(g.hands) != 1 {
		return false
	}
	hand := g.hands[g.active]
	return len(hand.Cards) == 2 && hand.Cards[0].Rank == hand.Cards[1].Rank && g.balance >= hand.Bet
}

// Split divides a matched pair into two hands staked equally, deals one
// fresh card to each and continues play on the first hand.
func (g *Game) Split() error {
	if g.phase != PhasePlayerTurn {
		return ErrInvalidAction
	}
	if len(g.hands) != 1 {
		return ErrAlreadySplit
	}
	hand := g.hands[g.active]
	if len(hand.Cards) != 2 || hand.Cards[0].Rank != hand.Cards[1].Rank {
		return ErrSplitMismatch
	}
	if g.balance < hand.Bet {
		return ErrInsufficientChips
	}
	g.balance -= hand.Bet

	second := NewHand(hand.Bet)
	second.FromSplit = true
	second.Cards = append(second.Cards, hand.Cards[1])
	hand.Cards = hand.Cards[:1]
	hand.FromSplit = true

	hand.AddCard(g.shoe.Deal())
	second.AddCard(g.shoe.Deal())
	g.hands = append(g.hands, second)
	return nil
}

// PlayDealerTurn draws for the dealer per the house rule, hitting 16
// and below and standing at 17, then completes the round.
func (g *Game) PlayDealerTurn() error {
	if g.phase != PhaseDealerTurn {
		return ErrInvalidAction
	}
	for DealerShouldHit(g.dealer.Cards) {
		g.dealer.AddCard(g.shoe.Deal())
	}
	g.phase = PhaseComplete
	return nil
}

// SettleRound computes one outcome per player hand, credits the total
// payout back to the balance and returns to betting. The returned
// outcomes are the only output channel; callers must capture them
// before StartNewRound clears the round.
func (g *Game) SettleRound(ctx context.Context) ([]HandOutcome, error) {
	if g.phase != PhaseComplete {
		return nil, ErrInvalidAction
	}

	dealerValue := g.dealer.Value().Value
	outcomes := make([]HandOutcome, 0, len(g.hands))
	var credit, netProfit int64
	for _, hand := range g.hands {
		outcome := g.settleHand(hand, dealerValue)
		credit += outcome.Payout
		netProfit += outcome.Profit
		outcomes = append(outcomes, outcome)
	}
	g.balance += credit

	if g.repo != nil {
		record := &entities.RoundRecord{
			ID:          g.roundID,
			GameType:    entities.GameTypeBlackjack,
			Outcome:     outcomeLabel(netProfit),
			NetProfit:   netProfit,
			HandCount:   len(outcomes),
			PlayerScore: outcomes[0].PlayerValue,
			HouseScore:  dealerValue,
			CompletedAt: time.Now(),
		}
		if err := g.repo.SaveRound(ctx, record); err != nil {
			g.logger.Warn("failed to save round record", "err", err)
		}
	}

	g.logger.Info("round settled",
		"hands", len(outcomes),
		"dealer", dealerValue,
		"net", netProfit,
		"balance", g.balance)

	g.hands = nil
	g.dealer = nil
	g.active = 0
	g.roundID = ""
	g.phase = PhaseBetting
	return outcomes, nil
}

// StartNewRound clears all hands unconditionally and returns to
// betting. A bet whose round was never settled is forfeited.
func (g *Game) StartNewRound() {
	if g.phase != PhaseBetting && len(g.hands) > 0 {
		var forfeited int64
		for _, hand := range g.hands {
			forfeited += hand.Bet
		}
		g.logger.Warn("abandoning unsettled round, bets forfeited",
			"round", g.roundID, "forfeited", forfeited)
	}
	g.hands = nil
	g.dealer = nil
	g.active = 0
	g.roundID = ""
	g.phase = PhaseBetting
}

// ShoeRemaining returns how many cards are left in the shoe.
func (g *Game) ShoeRemaining() int {
	return g.shoe.Remaining()
}

// settleHand applies the settlement table for one hand against the
// dealer: both-blackjack pushes, a lone player blackjack pays 3:2
// floored, a dealer blackjack or a player bust loses the stake, a
// dealer bust pays 1:1, otherwise higher value wins and equal pushes.
func (g *Game) settleHand(hand *Hand, dealerValue int) HandOutcome {
	playerBJ := IsBlackjack(hand.Cards)
	dealerBJ := IsBlackjack(g.dealer.Cards)

	outcome := HandOutcome{
		Bet:         hand.Bet,
		PlayerValue: hand.Value().Value,
		DealerValue: dealerValue,
		FromSplit:   hand.FromSplit,
	}

	switch {
	case playerBJ && dealerBJ:
		outcome.Result = OutcomePush
		outcome.Payout = hand.Bet
	case playerBJ:
		outcome.Result = OutcomeBlackjack
		outcome.Payout = hand.Bet + hand.Bet*3/2
	case dealerBJ:
		outcome.Result = OutcomeLose
	case hand.Status == StatusBust:
		outcome.Result = OutcomeLose
	default:
		switch CompareHands(hand.Cards, g.dealer.Cards) {
		case 1:
			outcome.Result = OutcomeWin
			outcome.Payout = hand.Bet * 2
		case -1:
			outcome.Result = OutcomeLose
		default:
			outcome.Result = OutcomePush
			outcome.Payout = hand.Bet
		}
	}
	outcome.Profit = outcome.Payout - hand.Bet
	return outcome
}

// advanceHand moves play to the next split hand. When none remain the
// round moves to the dealer turn, or straight to complete if every
// player hand busted.
func (g *Game) advanceHand() {
	if g.active+1 < len(g.hands) {
		g.active++
		return
	}
	for _, hand := range g.hands {
		if hand.Status != StatusBust {
			g.phase = PhaseDealerTurn
			return
		}
	}
	g.phase = PhaseComplete
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
