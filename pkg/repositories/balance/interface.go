package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/fennwick/cardroom/pkg/entities"
)

// Outcome is the per-round result reported alongside a chip update.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// ChipUpdateRequest is the delta-based request the balance endpoint
// consumes. PreviousBalance is the client's last confirmed server
// balance; the server applies Delta on top of its own ledger and
// rejects with BALANCE_MISMATCH when the two disagree.
type ChipUpdateRequest struct {
	PreviousBalance     int64             `json:"previousBalance"`
	Delta               int64             `json:"delta"`
	GameType            entities.GameType `json:"gameType"`
	Outcome             Outcome           `json:"outcome,omitempty"`
	HandCount           int               `json:"handCount,omitempty"`
	WinsIncrement       int               `json:"winsIncrement,omitempty"`
	LossesIncrement     int               `json:"lossesIncrement,omitempty"`
	BiggestWinCandidate int64             `json:"biggestWinCandidate,omitempty"`
	MaxBet              int64             `json:"maxBet,omitempty"`
}

// ChipUpdateResponse is the success payload from the balance endpoint.
type ChipUpdateResponse struct {
	Success         bool     `json:"success"`
	Balance         int64    `json:"balance"`
	NewAchievements []string `json:"newAchievements,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Error codes reported by the balance endpoint.
const (
	CodeUnauthorized                = "UNAUTHORIZED"
	CodeInvalidRequestBody          = "INVALID_REQUEST_BODY"
	CodeInvalidDelta                = "INVALID_DELTA"
	CodeInvalidGameType             = "INVALID_GAME_TYPE"
	CodeInvalidOutcome              = "INVALID_OUTCOME"
	CodeInvalidSplitHandConsistency = "INVALID_SPLIT_HAND_CONSISTENCY"
	CodeInvalidHandCount            = "INVALID_HAND_COUNT"
	CodeInvalidWinsIncrement        = "INVALID_WINS_INCREMENT"
	CodeInvalidLossesIncrement      = "INVALID_LOSSES_INCREMENT"
	CodeInvalidBiggestWinCandidate  = "INVALID_BIGGEST_WIN_CANDIDATE"
	CodeDeltaExceedsLimit           = "DELTA_EXCEEDS_LIMIT"
	CodeInsufficientBalance         = "INSUFFICIENT_BALANCE"
	CodeBalanceMismatch             = "BALANCE_MISMATCH"
	CodeRateLimited                 = "RATE_LIMITED"
	CodeDatabaseError               = "DATABASE_ERROR"
	CodeDatabaseUnavailable         = "DATABASE_UNAVAILABLE"
)

// APIError is a structured rejection from the balance endpoint.
// RetryAfter is only set for RATE_LIMITED responses; CurrentBalance is
// set when the server reports its authoritative balance, notably on
// BALANCE_MISMATCH.
type APIError struct {
	Status         int
	Code           string
	Message        string
	RetryAfter     time.Duration
	CurrentBalance *int64
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("balance endpoint: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("balance endpoint: %s (%d)", e.Code, e.Status)
}

// Retryable reports whether the rejection may be retried after backoff.
func (e *APIError) Retryable() bool {
	return e.Code == CodeRateLimited
}

// ServerBalance returns the authoritative balance carried by the error,
// if any.
func (e *APIError) ServerBalance() (int64, bool) {
	if e.CurrentBalance == nil {
		return 0, false
	}
	return *e.CurrentBalance, true
}

//go:generate mockgen -source=$GOFILE -destination=mock/client.go -package=mock_balance

// Client submits chip updates to the balance endpoint.
type Client interface {
	UpdateChips(ctx context.Context, req *ChipUpdateRequest) (*ChipUpdateResponse, error)
}
