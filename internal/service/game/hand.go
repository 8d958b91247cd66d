package game

// Hand is an append-only sequence of cards held by one participant.
type Hand struct {
	cards []Card
}

func (h *Hand) Add(card Card) {
	h.cards = append(h.cards, card)
}

// Cards returns a copy; the hand itself is only mutated through Add.
func (h *Hand) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}

func (h *Hand) Size() int {
	return len(h.cards)
}

// Total computes the blackjack total of the hand plus any extra cards. The
// extras let the dealer's concealed card participate without being stored in
// the hand. While the sum exceeds 21 and an ace is still counted as 11, one
// ace is re-counted as 1.
func (h *Hand) Total(extras ...Card) int {
	sum := 0
	aces := 0
	for _, card := range h.cards {
		sum += card.Points()
		if card.IsAce() {
			aces++
		}
	}
	for _, card := range extras {
		sum += card.Points()
		if card.IsAce() {
			aces++
		}
	}
	for sum > 21 && aces > 0 {
		sum -= 10
		aces--
	}
	return sum
}
