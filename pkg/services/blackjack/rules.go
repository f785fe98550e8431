package blackjack

import "github.com/fennwick/cardroom/pkg/entities"

const (
	// ShoeDecks is the number of decks in the blackjack shoe.
	ShoeDecks = 1

	// ReshuffleThreshold rebuilds the shoe between rounds once fewer
	// cards than this remain.
	ReshuffleThreshold = 15

	// DealerStand is the total at which the dealer stands, hard or soft.
	DealerStand = 17
)

// HandValue is the evaluated total of a hand. Soft means an ace is
// still counted as 11; Bust means the total exceeds 21 after every ace
// has been downgraded to 1.
type HandValue struct {
	Value int
	Soft  bool
	Bust  bool
}

// CardValue returns the blackjack value of a card with aces high: 11
// for an ace, 10 for tens and faces, pip value otherwise.
func CardValue(card entities.Card) int {
	if card.Rank == entities.Ace {
		return 11
	}
	return card.Pip()
}

// EvaluateHand computes the best value of a hand. Every ace starts at
// 11 and aces are downgraded to 1 one at a time while the total is over
// 21 and a high ace remains.
func EvaluateHand(cards []entities.Card) HandValue {
	value := 0
	highAces := 0
	for _, card := range cards {
		value += CardValue(card)
		if card.Rank == entities.Ace {
			highAces++
		}
	}
	for value > 21 && highAces > 0 {
		value -= 10
		highAces--
	}
	return HandValue{
		Value: value,
		Soft:  highAces > 0,
		Bust:  value > 21,
	}
}

// IsBlackjack reports whether a hand is a natural: exactly two cards
// totalling 21.
func IsBlackjack(cards []entities.Card) bool {
	return len(cards) == 2 && EvaluateHand(cards).Value == 21
}

// DealerShouldHit implements the house rule: hit while the total is 16
// or less, hard or soft, stand at 17 or on bust. A soft 17 stands, a
// soft 16 hits.
func DealerShouldHit(cards []entities.Card) bool {
	value := EvaluateHand(cards)
	return !value.Bust && value.Value < DealerStand
}

// CompareHands compares a player hand against the dealer and returns 1
// if the player wins, -1 if the dealer wins and 0 for a push. A busted
// player hand always loses, even against a dealer bust.
func CompareHands(player, dealer []entities.Card) int {
	playerValue := EvaluateHand(player)
	if playerValue.Bust {
		return -1
	}
	dealerValue := EvaluateHand(dealer)
	if dealerValue.Bust {
		return 1
	}
	switch {
	case playerValue.Value > dealerValue.Value:
		return 1
	case playerValue.Value < dealerValue.Value:
		return -1
	default:
		return 0
	}
}
