package statistics

import (
	"github.com/fennwick/cardroom/pkg/services/baccarat"
	"github.com/fennwick/cardroom/pkg/services/blackjack"
)

// Session aggregates the statistics of one playing session across both
// tables. It is display-state only; the authoritative statistics live
// behind the balance endpoint.
type Session struct {
	GamesPlayed int
	Wins        int
	Losses      int
	Pushes      int
	Blackjacks  int
	TotalBet    int64
	NetProfit   int64
	BiggestWin  int64
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// RecordBlackjack folds a settled blackjack round into the session. A
// split round counts as one game but each hand contributes its result.
func (s *Session) RecordBlackjack(outcomes []blackjack.HandOutcome) {
	s.GamesPlayed++
	for _, outcome := range outcomes {
		s.TotalBet += outcome.Bet
		s.NetProfit += outcome.Profit
		if outcome.Profit > s.BiggestWin {
			s.BiggestWin = outcome.Profit
		}
		switch outcome.Result {
		case blackjack.OutcomeBlackjack:
			s.Blackjacks++
			s.Wins++
		case blackjack.OutcomeWin:
			s.Wins++
		case blackjack.OutcomeLose:
			s.Losses++
		case blackjack.OutcomePush:
			s.Pushes++
		}
	}
}

// RecordBaccarat folds a settled baccarat round into the session.
func (s *Session) RecordBaccarat(outcome *baccarat.RoundOutcome) {
	s.GamesPlayed++
	for _, result := range outcome.BetResults {
		s.TotalBet += result.Amount
	}
	s.NetProfit += outcome.NetProfit
	if outcome.NetProfit > s.BiggestWin {
		s.BiggestWin = outcome.NetProfit
	}
	switch {
	case outcome.NetProfit > 0:
		s.Wins++
	case outcome.NetProfit < 0:
		s.Losses++
	default:
		s.Pushes++
	}
}

// WinRate calculates the session win rate as a percentage.
func (s *Session) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0.0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100.0
}
