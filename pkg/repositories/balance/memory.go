package balance

import (
	"context"
	"net/http"
	"sync"
)

// MemoryClient is an in-process balance ledger used for anonymous and
// local sessions, and as a scriptable stand-in for the real endpoint in
// tests. It enforces the same contract: previousBalance must match the
// ledger, the resulting balance may not go negative, and oversized
// deltas are rejected.
type MemoryClient struct {
	mu       sync.Mutex
	balance  int64
	maxDelta int64 // 0 disables the limit
	script   []error
}

// NewMemoryClient creates a ledger seeded with the given balance.
func NewMemoryClient(startingBalance int64) *MemoryClient {
	return &MemoryClient{balance: startingBalance}
}

// SetMaxDelta enables DELTA_EXCEEDS_LIMIT rejections for deltas whose
// magnitude exceeds the limit.
func (c *MemoryClient) SetMaxDelta(limit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxDelta = limit
}

// FailNext queues errors to be returned, in order, by upcoming
// UpdateChips calls before the ledger is consulted.
func (c *MemoryClient) FailNext(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, errs...)
}

// Balance returns the current ledger balance.
func (c *MemoryClient) Balance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

// UpdateChips applies a delta against the ledger.
func (c *MemoryClient) UpdateChips(ctx context.Context, req *ChipUpdateRequest) (*ChipUpdateResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.script) > 0 {
		err := c.script[0]
		c.script = c.script[1:]
		if err != nil {
			return nil, err
		}
	}

	if req.GameType == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Code: CodeInvalidGameType}
	}
	if req.PreviousBalance != c.balance {
		current := c.balance
		return nil, &APIError{
			Status:         http.StatusConflict,
			Code:           CodeBalanceMismatch,
			CurrentBalance: &current,
		}
	}
	if c.maxDelta > 0 && (req.Delta > c.maxDelta || req.Delta < -c.maxDelta) {
		return nil, &APIError{Status: http.StatusBadRequest, Code: CodeDeltaExceedsLimit}
	}
	if c.balance+req.Delta < 0 {
		return nil, &APIError{Status: http.StatusBadRequest, Code: CodeInsufficientBalance}
	}

	c.balance += req.Delta
	return &ChipUpdateResponse{Success: true, Balance: c.balance}, nil
}
