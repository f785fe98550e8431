package baccarat

import "github.com/fennwick/cardroom/pkg/entities"

const (
	// ShoeDecks is the number of decks in a baccarat shoe.
	ShoeDecks = 8

	// DefaultReshuffleFraction is the fraction of the shoe remaining
	// below which the shoe is rebuilt between rounds.
	DefaultReshuffleFraction = 0.25
)

// Winner identifies which side a settled round went to.
type Winner string

const (
	WinnerPlayer Winner = "player"
	WinnerBanker Winner = "banker"
	WinnerTie    Winner = "tie"
)

// CardValue returns the baccarat point value of a card: aces count 1,
// tens and face cards count 0.
func CardValue(card entities.Card) int {
	pip := card.Pip()
	if pip >= 10 {
		return 0
	}
	return pip
}

// HandValue computes the baccarat value of a hand, the sum of card
// values mod 10. An empty hand is 0.
func HandValue(cards []entities.Card) int {
	total := 0
	for _, card := range cards {
		total += CardValue(card)
	}
	return total % 10
}

// IsNatural reports whether a two-card hand totals 8 or 9. A natural on
// either side short-circuits all third-card logic for both hands.
func IsNatural(cards []entities.Card) bool {
	return len(cards) == 2 && HandValue(cards) >= 8
}

// IsPair reports whether the first two cards of a hand share a rank.
func IsPair(cards []entities.Card) bool {
	return len(cards) >= 2 && cards[0].Rank == cards[1].Rank
}

// PlayerDraws reports whether the player hand takes a third card. Only
// consulted once naturals have been ruled out.
func PlayerDraws(playerValue int) bool {
	return playerValue <= 5
}

// BankerDrawsAgainstStand applies the simple rule used when the player
// stood pat: banker draws on 0-5, stands on 6-7.
func BankerDrawsAgainstStand(bankerValue int) bool {
	return bankerValue <= 5
}

// BankerDraws implements the banker third-card table consulted when the
// player drew. playerThirdValue is the point value of the player's
// third card.
func BankerDraws(bankerValue, playerThirdValue int) bool {
	switch bankerValue {
	case 0, 1, 2:
		return true
	case 3:
		return playerThirdValue != 8
	case 4:
		return playerThirdValue >= 2 && playerThirdValue <= 7
	case 5:
		return playerThirdValue >= 4 && playerThirdValue <= 7
	case 6:
		return playerThirdValue == 6 || playerThirdValue == 7
	default: // 7 always stands
		return false
	}
}

// DetermineWinner compares final hand values, strict greater-than with
// equal values a tie.
func DetermineWinner(playerValue, bankerValue int) Winner {
	switch {
	case playerValue > bankerValue:
		return WinnerPlayer
	case bankerValue > playerValue:
		return WinnerBanker
	default:
		return WinnerTie
	}
}
