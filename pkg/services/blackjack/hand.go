package blackjack

import "github.com/fennwick/cardroom/pkg/entities"

// HandStatus represents the current state of a hand
type HandStatus string

const (
	StatusPlaying HandStatus = "PLAYING"
	StatusStand   HandStatus = "STAND"
	StatusBust    HandStatus = "BUST"
)

// Hand is one player hand with its stake. A round has one hand, or two
// after a split; the dealer hand carries no bet.
type Hand struct {
	Cards       []entities.Card
	Bet         int64
	Status      HandStatus
	DoubledDown bool
	FromSplit   bool
}

// NewHand creates an empty hand with the given stake.
func NewHand(bet int64) *Hand {
	return &Hand{
		Cards:  make([]entities.Card, 0, 4),
		Bet:    bet,
		Status: StatusPlaying,
	}
}

// AddCard appends a card and auto-busts the hand when it goes over 21.
func (h *Hand) AddCard(card entities.Card) {
	h.Cards = append(h.Cards, card)
	if EvaluateHand(h.Cards).Bust {
		h.Status = StatusBust
	}
}

// Value returns the evaluated total of the hand.
func (h *Hand) Value() HandValue {
	return EvaluateHand(h.Cards)
}

// Done reports whether the hand can take no further action.
func (h *Hand) Done() bool {
	return h.Status != StatusPlaying
}
