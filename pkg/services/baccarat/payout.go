package baccarat

// BetType identifies one of the five concurrent bets a round supports.
type BetType string

const (
	BetPlayer     BetType = "PLAYER"
	BetBanker     BetType = "BANKER"
	BetTie        BetType = "TIE"
	BetPlayerPair BetType = "PLAYER_PAIR"
	BetBankerPair BetType = "BANKER_PAIR"
)

// BetTypes lists every supported bet type.
var BetTypes = []BetType{BetPlayer, BetBanker, BetTie, BetPlayerPair, BetBankerPair}

// ValidBetType reports whether t is a supported bet type.
func ValidBetType(t BetType) bool {
	switch t {
	case BetPlayer, BetBanker, BetTie, BetPlayerPair, BetBankerPair:
		return true
	}
	return false
}

// Bet is a staked wager of one type.
type Bet struct {
	Type   BetType
	Amount int64
}

// BetResult is the settled outcome of a single bet: Profit is the
// signed chip change (-Amount on a loss, 0 on a push).
type BetResult struct {
	Type   BetType
	Amount int64
	Profit int64
}

// BetProfit returns the signed profit for a bet given the settled
// round. Integer arithmetic truncates toward zero so balances stay
// integral chip counts; the banker commission in particular is
// truncated, never rounded.
//
// Player pays 1:1, banker 0.95:1 (5% commission), tie 8:1 and the pair
// bets 11:1. Player and banker bets push on a tie; everything else
// loses its stake when it misses. Pair bets settle independently of the
// round winner.
func BetProfit(betType BetType, amount int64, winner Winner, playerPair, bankerPair bool) int64 {
	switch betType {
	case BetPlayer:
		switch winner {
		case WinnerPlayer:
			return amount
		case WinnerTie:
			return 0
		default:
			return -amount
		}
	case BetBanker:
		switch winner {
		case WinnerBanker:
			return amount * 95 / 100
		case WinnerTie:
			return 0
		default:
			return -amount
		}
	case BetTie:
		if winner == WinnerTie {
			return amount * 8
		}
		return -amount
	case BetPlayerPair:
		if playerPair {
			return amount * 11
		}
		return -amount
	case BetBankerPair:
		if bankerPair {
			return amount * 11
		}
		return -amount
	}
	return -amount
}
