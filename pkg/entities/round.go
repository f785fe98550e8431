package entities

import "time"

// GameType identifies which table a round was played at.
type GameType string

const (
	GameTypeBlackjack GameType = "blackjack"
	GameTypeBaccarat  GameType = "baccarat"
)

// RoundRecord is the persisted form of a settled round. It carries the
// aggregate result rather than per-bet detail; the engines keep richer
// in-memory outcome types for the UI.
type RoundRecord struct {
	ID          string
	GameType    GameType
	Outcome     string // "win", "loss" or "push"
	NetProfit   int64  // signed chip delta for the round
	HandCount   int    // >1 only for split blackjack rounds
	PlayerScore int
	HouseScore  int // dealer score in blackjack, banker score in baccarat
	CompletedAt time.Time
}
