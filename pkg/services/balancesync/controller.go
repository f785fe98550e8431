package balancesync

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/fennwick/cardroom/pkg/entities"
	"github.com/fennwick/cardroom/pkg/repositories/balance"
)

const (
	// maxSyncAttempts bounds rate-limited retries within one sync cycle.
	maxSyncAttempts = 3

	// retryBuffer is added on top of the server's Retry-After so a
	// retry never lands inside the same rate-limit window.
	retryBuffer = 500 * time.Millisecond

	// defaultRetryAfter is used when a rate-limited response omits the
	// Retry-After header.
	defaultRetryAfter = 2 * time.Second
)

// GameBalance is the slice of an engine the controller needs: reading
// the live in-memory balance and overwriting it on server corrections.
// Both engines satisfy it.
type GameBalance interface {
	Balance() int64
	SetBalance(balance int64) error
}

// PendingStats accumulates round statistics not yet confirmed by the
// server. Counters are additive across delayed rounds; BiggestWin and
// MaxBet keep the maximum seen, never a sum.
type PendingStats struct {
	Wins        int
	Losses      int
	Hands       int
	BiggestWin  int64
	MaxBet      int64
	LastOutcome balance.Outcome
}

func (p *PendingStats) empty() bool {
	return p.Wins == 0 && p.Losses == 0 && p.Hands == 0 &&
		p.BiggestWin == 0 && p.MaxBet == 0
}

func (p *PendingStats) reset() {
	*p = PendingStats{}
}

// RoundSummary is what one settled round contributes to a sync.
type RoundSummary struct {
	RoundID    string
	Outcome    balance.Outcome
	HandCount  int
	Wins       int
	Losses     int
	BiggestWin int64 // max profit of any single hand in the round
	MaxBet     int64
}

// Config carries the controller dependencies. Clock defaults to the
// real clock and Logger to a silent one.
type Config struct {
	Client        balance.Client
	Game          GameBalance
	GameType      entities.GameType
	ServerBalance int64 // last balance the server is known to hold
	Clock         quartz.Clock
	Logger        *log.Logger
}

// Controller reconciles the engine's optimistic in-memory balance with
// the authoritative server ledger. It tracks the last confirmed server
// balance separately from the live game balance and always computes the
// submitted delta against the live balance at send time, so a retry
// that fires after further rounds reflects the net effect of all of
// them instead of a stale partial delta.
//
// The mutex exists only because retry timers fire on their own
// goroutine; all gameplay calls arrive from a single session.
type Controller struct {
	mu     sync.Mutex
	client balance.Client
	game   GameBalance

	gameType entities.GameType
	clock    quartz.Clock
	logger   *log.Logger

	serverSynced int64
	pending      PendingStats
	lastFolded   string // round ID already folded into pending
	attempts     int
	retry        *quartz.Timer
}

// NewController creates a controller whose watermark starts at the
// given server balance.
func NewController(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		client:       cfg.Client,
		game:         cfg.Game,
		gameType:     cfg.GameType,
		clock:        clock,
		logger:       logger.WithPrefix("balance-sync"),
		serverSynced: cfg.ServerBalance,
	}
}

// ServerSyncedBalance returns the last balance confirmed by the server.
func (c *Controller) ServerSyncedBalance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverSynced
}

// Pending returns a copy of the statistics awaiting confirmation.
func (c *Controller) Pending() PendingStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// RoundCompleted folds a settled round into the pending statistics and
// starts a sync attempt. Any outstanding retry timer is cancelled first
// so two in-flight corrections can never apply deltas against different
// balance snapshots. Folding is idempotent per round ID.
//
// A nil return means the update was confirmed or a retry is scheduled;
// an error is terminal for this cycle and describes how the controller
// reconciled (see sendLocked).
func (c *Controller) RoundCompleted(ctx context.Context, round RoundSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRetryLocked()
	c.attempts = 0
	c.foldRoundLocked(round)
	return c.sendLocked(ctx)
}

// Flush starts a sync attempt without contributing a new round, used to
// push leftover pending statistics (for example on session exit).
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelRetryLocked()
	c.attempts = 0
	return c.sendLocked(ctx)
}

// Close cancels any outstanding retry timer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRetryLocked()
}

// foldRoundLocked adds a round's statistics to pending at most once per
// round.
func (c *Controller) foldRoundLocked(round RoundSummary) {
	if round.RoundID != "" && round.RoundID == c.lastFolded {
		return
	}
	c.lastFolded = round.RoundID
	c.pending.Wins += round.Wins
	c.pending.Losses += round.Losses
	c.pending.Hands += round.HandCount
	if round.BiggestWin > c.pending.BiggestWin {
		c.pending.BiggestWin = round.BiggestWin
	}
	if round.MaxBet > c.pending.MaxBet {
		c.pending.MaxBet = round.MaxBet
	}
	c.pending.LastOutcome = round.Outcome
}

// sendLocked performs one sync attempt. The delta is recomputed against
// the live game balance here, at send time: if two rounds settled
// before a retry fired, both collapse into one correct delta.
func (c *Controller) sendLocked(ctx context.Context) error {
	basis := c.game.Balance()
	delta := basis - c.serverSynced
	if delta == 0 && c.pending.empty() {
		return nil
	}

	req := &balance.ChipUpdateRequest{
		PreviousBalance:     c.serverSynced,
		Delta:               delta,
		GameType:            c.gameType,
		Outcome:             c.pending.LastOutcome,
		HandCount:           c.pending.Hands,
		WinsIncrement:       c.pending.Wins,
		LossesIncrement:     c.pending.Losses,
		BiggestWinCandidate: c.pending.BiggestWin,
		MaxBet:              c.pending.MaxBet,
	}

	resp, err := c.client.UpdateChips(ctx, req)
	if err == nil {
		c.serverSynced = basis
		c.pending.reset()
		c.attempts = 0
		if resp.Balance != basis {
			c.logger.Warn("server balance diverges after confirmed sync",
				"server", resp.Balance, "local", basis)
		}
		c.logger.Debug("chip update confirmed", "delta", delta, "balance", basis)
		return nil
	}

	var apiErr *balance.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable() {
			c.attempts++
			if c.attempts < maxSyncAttempts {
				wait := apiErr.RetryAfter
				if wait <= 0 {
					wait = defaultRetryAfter
				}
				wait += retryBuffer
				c.logger.Info("rate limited, retrying",
					"attempt", c.attempts, "wait", wait)
				c.scheduleRetryLocked(wait)
				return nil
			}
			// Retries exhausted for this cycle. The optimistic balance
			// and pending stats stay put and ride along with the next
			// round's sync.
			c.attempts = 0
			c.logger.Warn("rate limited, retries exhausted", "delta", delta)
			return err
		}

		if serverBalance, ok := apiErr.ServerBalance(); ok {
			// The server told us what it holds; its word is final.
			c.serverSynced = serverBalance
			if setErr := c.game.SetBalance(serverBalance); setErr != nil {
				c.logger.Error("failed to apply server balance correction",
					"balance", serverBalance, "err", setErr)
			}
			c.pending.reset()
			c.attempts = 0
			c.logger.Warn("resynced to authoritative server balance",
				"code", apiErr.Code, "balance", serverBalance)
			return err
		}
	}

	// Outright rejection or network failure with nothing to preserve:
	// the attempted change never happened as far as the server is
	// concerned, so roll the live balance back to the watermark.
	if setErr := c.game.SetBalance(c.serverSynced); setErr != nil {
		c.logger.Error("failed to revert balance after rejected sync",
			"balance", c.serverSynced, "err", setErr)
	}
	c.pending.reset()
	c.attempts = 0
	c.logger.Warn("chip update rejected, reverted to synced balance",
		"balance", c.serverSynced, "err", err)
	return err
}

// scheduleRetryLocked arms the single retry slot. At most one retry
// timer is outstanding at any time.
func (c *Controller) scheduleRetryLocked(wait time.Duration) {
	c.cancelRetryLocked()
	c.retry = c.clock.AfterFunc(wait, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.retry = nil
		if err := c.sendLocked(context.Background()); err != nil {
			c.logger.Warn("retry sync failed", "err", err)
		}
	})
}

func (c *Controller) cancelRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}
