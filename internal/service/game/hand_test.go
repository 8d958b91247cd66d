package game

import "testing"

func card(rank Rank) Card {
	return Card{Rank: rank, Suit: Spades}
}

func handOf(ranks ...Rank) *Hand {
	h := &Hand{}
	for _, r := range ranks {
		h.Add(card(r))
	}
	return h
}

func TestHandTotals(t *testing.T) {
	cases := []struct {
		name  string
		ranks []Rank
		want  int
	}{
		{"ace high", []Rank{Ace, Nine}, 20},
		{"two aces one reduced", []Rank{Ace, Ace, Nine}, 21},
		{"three aces with eight", []Rank{Ace, Ace, Ace, Eight}, 11},
		{"ace saves twenty", []Rank{Ten, Ten, Ace}, 21},
		{"natural", []Rank{Ace, King}, 21},
		{"hard faces", []Rank{King, Queen, Jack}, 30},
		{"numeric", []Rank{Two, Three, Four}, 9},
		{"soft seventeen", []Rank{Ace, Six}, 17},
		{"multi ace soft", []Rank{Ace, Ace}, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := handOf(tc.ranks...).Total(); got != tc.want {
				t.Fatalf("total of %v = %d, want %d", tc.ranks, got, tc.want)
			}
		})
	}
}

func TestHandTotalWithExtras(t *testing.T) {
	// The dealer's concealed card is merged via extras without joining the hand.
	h := handOf(Ten)
	if got := h.Total(card(Nine)); got != 19 {
		t.Fatalf("10 + hidden 9 = %d, want 19", got)
	}
	if got := h.Total(card(Ace)); got != 21 {
		t.Fatalf("10 + hidden A = %d, want 21", got)
	}
	if h.Size() != 1 {
		t.Fatalf("extras must not be stored, size = %d", h.Size())
	}

	// Extra ace participates in the reduction loop.
	h = handOf(Ten, Nine)
	if got := h.Total(card(Ace)); got != 20 {
		t.Fatalf("10+9 + hidden A = %d, want 20", got)
	}
}
