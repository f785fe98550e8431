package balancesync

import (
	"github.com/fennwick/cardroom/pkg/repositories/balance"
	"github.com/fennwick/cardroom/pkg/services/baccarat"
	"github.com/fennwick/cardroom/pkg/services/blackjack"
)

// SummarizeBlackjack builds the sync contribution of a settled
// blackjack round. roundID must be captured from the engine before
// SettleRound clears it. BiggestWin is the max profit of any single
// hand, which the server needs separately from the aggregate delta once
// a split produces more than one hand.
func SummarizeBlackjack(roundID string, outcomes []blackjack.HandOutcome) RoundSummary {
	summary := RoundSummary{
		RoundID:   roundID,
		HandCount: len(outcomes),
	}
	var net int64
	for _, outcome := range outcomes {
		net += outcome.Profit
		switch {
		case outcome.Result.IsWin():
			summary.Wins++
		case outcome.Result == blackjack.OutcomeLose:
			summary.Losses++
		}
		if outcome.Profit > summary.BiggestWin {
			summary.BiggestWin = outcome.Profit
		}
		if outcome.Bet > summary.MaxBet {
			summary.MaxBet = outcome.Bet
		}
	}
	summary.Outcome = outcomeFromNet(net)
	return summary
}

// SummarizeBaccarat builds the sync contribution of a settled baccarat
// round. All concurrent bets settle together as a single hand.
func SummarizeBaccarat(outcome *baccarat.RoundOutcome) RoundSummary {
	summary := RoundSummary{
		RoundID:   outcome.ID,
		HandCount: 1,
		Outcome:   outcomeFromNet(outcome.NetProfit),
	}
	switch {
	case outcome.NetProfit > 0:
		summary.Wins = 1
		summary.BiggestWin = outcome.NetProfit
	case outcome.NetProfit < 0:
		summary.Losses = 1
	}
	for _, result := range outcome.BetResults {
		if result.Amount > summary.MaxBet {
			summary.MaxBet = result.Amount
		}
	}
	return summary
}

func outcomeFromNet(net int64) balance.Outcome {
	switch {
	case net > 0:
		return balance.OutcomeWin
	case net < 0:
		return balance.OutcomeLoss
	default:
		return balance.OutcomePush
	}
}
