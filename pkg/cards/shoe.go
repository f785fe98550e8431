package cards

import (
	"math/rand"

	"github.com/fennwick/cardroom/pkg/entities"
)

// Shoe owns a shuffled multiset of one or more 52-card decks and deals
// from the top. A shoe is only ever reset wholesale between rounds;
// engines call ReshuffleIfNeeded before any card of a new round is
// dealt, never mid-hand.
type Shoe struct {
	cards      []entities.Card
	decks      int
	threshold  int
	rng        *rand.Rand // nil falls back to the global source
	reshuffles int
}

// NewShoe builds a shuffled shoe of 52*decks cards. The RNG is
// injectable so two shoes seeded identically deal identical sequences.
func NewShoe(decks, threshold int, rng *rand.Rand) *Shoe {
	if decks < 1 {
		decks = 1
	}
	s := &Shoe{
		decks:     decks,
		threshold: threshold,
		rng:       rng,
	}
	s.rebuild()
	return s
}

// NewShoeFromCards builds an unshuffled shoe dealing the given cards in
// order. Intended for tests that need deterministic deals.
func NewShoeFromCards(cards []entities.Card) *Shoe {
	s := &Shoe{
		cards: make([]entities.Card, len(cards)),
		decks: 1,
	}
	copy(s.cards, cards)
	return s
}

// Deal removes and returns the top card. An empty shoe is a contract
// violation by the caller; rather than corrupt the round it self-heals
// with a full rebuild before dealing.
func (s *Shoe) Deal() entities.Card {
	if len(s.cards) == 0 {
		s.rebuild()
	}
	card := s.cards[0]
	s.cards = s.cards[1:]
	return card
}

// Remaining returns the number of cards left in the shoe.
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Size returns the full size of the shoe, 52 cards per deck.
func (s *Shoe) Size() int {
	return 52 * s.decks
}

// NeedsReshuffle reports whether the shoe has depleted past its
// reshuffle threshold.
func (s *Shoe) NeedsReshuffle() bool {
	return len(s.cards) < s.threshold
}

// ReshuffleIfNeeded rebuilds and reshuffles the shoe when it is below
// threshold, returning whether a reshuffle happened. Must only be
// called between rounds.
func (s *Shoe) ReshuffleIfNeeded() bool {
	if !s.NeedsReshuffle() {
		return false
	}
	s.rebuild()
	s.reshuffles++
	return true
}

// Reshuffles returns how many threshold-triggered reshuffles the shoe
// has performed.
func (s *Shoe) Reshuffles() int {
	return s.reshuffles
}

// rebuild replaces the card slice with a fresh full multiset and
// shuffles it.
func (s *Shoe) rebuild() {
	s.cards = make([]entities.Card, 0, 52*s.decks)
	for i := 0; i < s.decks; i++ {
		for _, suit := range entities.Suits {
			for _, rank := range entities.Ranks {
				s.cards = append(s.cards, entities.NewCard(rank, suit))
			}
		}
	}
	s.shuffle()
}

// shuffle performs a Fisher-Yates shuffle using the injected RNG.
func (s *Shoe) shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		var j int
		if s.rng != nil {
			j = s.rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}
