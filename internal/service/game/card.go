package game

import "fmt"

type Suit string

const (
	Diamonds Suit = "D"
	Hearts   Suit = "H"
	Spades   Suit = "S"
	Clubs    Suit = "C"
)

type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

var (
	suits = []Suit{Diamonds, Hearts, Spades, Clubs}
	ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

	rankPoints = map[Rank]int{
		Ace: 11, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
		Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
	}
)

// Card is a plain value; equality by rank and suit.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Points returns the blackjack value with aces counted high. The soft-ace
// reduction happens in Hand.Total, not here.
func (c Card) Points() int {
	return rankPoints[c.Rank]
}

func (c Card) IsAce() bool {
	return c.Rank == Ace
}

func (c Card) String() string {
	return fmt.Sprintf("%s-%s", c.Rank, c.Suit)
}
