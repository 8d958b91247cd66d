package game

import (
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/utils/random"
)

// Deck is owned by exactly one round for its lifetime and never reused.
type Deck struct {
	cards []Card
}

// NewShuffledDeck builds the 52-card set and applies an unbiased
// crypto/rand-backed Fisher-Yates permutation.
func NewShuffledDeck() *Deck {
	cards := make([]Card, 0, 52)
	for _, suit := range suits {
		for _, rank := range ranks {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	random.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// Draw removes and returns the top card (end of the slice). A single round
// cannot exhaust 52 cards, so an empty deck signals a caller bug rather than
// a normal outcome.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, appErr.ErrEmptyDeck
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card, nil
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}
