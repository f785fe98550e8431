package entities

import "time"

// Settings bounds for clamping. Values outside these ranges are pulled
// back in rather than rejected, so a corrupted settings file can never
// leave the tables unplayable.
const (
	MinAllowedBet      int64 = 1
	MaxAllowedBet      int64 = 100000
	MaxStartingChips   int64 = 1000000
	FastestDealerSpeed       = 100 * time.Millisecond
	SlowestDealerSpeed       = 3 * time.Second
)

// Settings holds the player-tunable table configuration. It is loaded
// through a settings store and clamped before it ever reaches an engine.
type Settings struct {
	MinBet        int64         `json:"minBet"`
	MaxBet        int64         `json:"maxBet"`
	StartingChips int64         `json:"startingChips"`
	DealerSpeed   time.Duration `json:"dealerSpeed"`
	LLMEnabled    bool          `json:"llmEnabled"`
}

// DefaultSettings returns the table defaults used when no stored
// settings exist.
func DefaultSettings() *Settings {
	return &Settings{
		MinBet:        10,
		MaxBet:        500,
		StartingChips: 1000,
		DealerSpeed:   800 * time.Millisecond,
		LLMEnabled:    false,
	}
}

// Clamp normalizes the settings in place so every field is inside its
// allowed range and MinBet <= MaxBet.
func (s *Settings) Clamp() {
	if s.MinBet < MinAllowedBet {
		s.MinBet = MinAllowedBet
	}
	if s.MaxBet > MaxAllowedBet {
		s.MaxBet = MaxAllowedBet
	}
	if s.MaxBet < s.MinBet {
		s.MaxBet = s.MinBet
	}
	if s.StartingChips < 0 {
		s.StartingChips = 0
	}
	if s.StartingChips > MaxStartingChips {
		s.StartingChips = MaxStartingChips
	}
	if s.DealerSpeed < FastestDealerSpeed {
		s.DealerSpeed = FastestDealerSpeed
	}
	if s.DealerSpeed > SlowestDealerSpeed {
		s.DealerSpeed = SlowestDealerSpeed
	}
}
