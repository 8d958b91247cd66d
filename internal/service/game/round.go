package game

import (
	"math"

	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"
)

// Outcome is the immutable result of settling a round. Payout is the amount
// to credit back: 0 on a loss, the bet on a push, 2x on a win, 2.5x rounded
// on a natural blackjack.
type Outcome struct {
	Result  string `json:"result"`
	Payout  int64  `json:"payout"`
	Message string `json:"message"`
}

// Round is the state machine for one hand of play. It never touches money;
// the ledger is the caller's concern. Not safe for concurrent use: a round
// belongs to exactly one caller, which mutates it strictly sequentially.
type Round struct {
	deck     *Deck
	dealer   Hand
	player   Hand
	hidden   *Card
	revealed bool
	settled  bool
}

// newDeck is swapped in tests to deal stacked decks.
var newDeck = NewShuffledDeck

// Start deals a fresh round: dealer hidden card first, then the dealer
// upcard, then two player cards. Any prior state is discarded.
func (r *Round) Start() error {
	r.deck = newDeck()
	r.dealer = Hand{}
	r.player = Hand{}
	r.revealed = false
	r.settled = false

	hidden, err := r.deck.Draw()
	if err != nil {
		return err
	}
	r.hidden = &hidden

	for _, hand := range []*Hand{&r.dealer, &r.player, &r.player} {
		card, err := r.deck.Draw()
		if err != nil {
			return err
		}
		hand.Add(card)
	}
	return nil
}

// PlayerHit draws one card into the player hand and returns it. The engine
// never auto-settles here; the caller checks for bust or 21 and drives the
// dealer turn and settlement.
func (r *Round) PlayerHit() (Card, error) {
	if r.settled {
		return Card{}, appErr.ErrRoundSettled
	}
	card, err := r.deck.Draw()
	if err != nil {
		return Card{}, err
	}
	r.player.Add(card)
	return card, nil
}

// PlayerStand ends the player's turn and runs the dealer.
func (r *Round) PlayerStand() error {
	if r.settled {
		return appErr.ErrRoundSettled
	}
	return r.PlayDealerTurn()
}

// PlayDealerTurn reveals the hidden card and draws while the dealer's full
// total is under 17. The dealer stands on every 17, soft included.
func (r *Round) PlayDealerTurn() error {
	r.RevealDealer()
	for r.DealerTotal() < 17 {
		card, err := r.deck.Draw()
		if err != nil {
			return err
		}
		r.dealer.Add(card)
	}
	return nil
}

func (r *Round) RevealDealer() {
	r.revealed = true
}

func (r *Round) IsDealerRevealed() bool {
	return r.revealed
}

func (r *Round) IsSettled() bool {
	return r.settled
}

func (r *Round) PlayerCards() []Card {
	return r.player.Cards()
}

// DealerVisibleCards excludes the concealed card; it is exposed separately
// through HiddenCard once revealed.
func (r *Round) DealerVisibleCards() []Card {
	return r.dealer.Cards()
}

func (r *Round) HiddenCard() (Card, bool) {
	if r.hidden == nil {
		return Card{}, false
	}
	return *r.hidden, true
}

func (r *Round) PlayerTotal() int {
	return r.player.Total()
}

// DealerVisibleTotal excludes the hidden card regardless of reveal state.
func (r *Round) DealerVisibleTotal() int {
	return r.dealer.Total()
}

// DealerTotal includes the hidden card.
func (r *Round) DealerTotal() int {
	if r.hidden == nil {
		return r.dealer.Total()
	}
	return r.dealer.Total(*r.hidden)
}

func (r *Round) IsPlayerNaturalBlackjack() bool {
	return r.player.Size() == 2 && r.player.Total() == 21
}

// IsDealerNaturalBlackjack checks only the initial configuration: one upcard
// plus the hidden card. Later draws can reach 21 without being a natural.
func (r *Round) IsDealerNaturalBlackjack() bool {
	return r.hidden != nil && r.dealer.Size() == 1 && r.dealer.Total(*r.hidden) == 21
}

// Settle resolves the round exactly once. A second call fails with
// ErrRoundSettled instead of recomputing a stale outcome. The dealer is
// always revealed on settlement.
func (r *Round) Settle(bet int64) (Outcome, error) {
	if r.settled {
		return Outcome{}, appErr.ErrRoundSettled
	}
	r.RevealDealer()

	playerScore := r.PlayerTotal()
	dealerScore := r.DealerTotal()
	playerBJ := r.IsPlayerNaturalBlackjack()
	dealerBJ := r.IsDealerNaturalBlackjack()

	var out Outcome
	switch {
	case playerScore > 21:
		out = Outcome{Result: model.ResultLose, Payout: 0, Message: "Busted over 21, you lose"}
	case playerBJ && dealerBJ:
		out = Outcome{Result: model.ResultPush, Payout: bet, Message: "Push"}
	case playerBJ:
		out = Outcome{Result: model.ResultWin, Payout: int64(math.Round(float64(bet) * 2.5)), Message: "Blackjack! You win"}
	case dealerBJ:
		out = Outcome{Result: model.ResultLose, Payout: 0, Message: "Dealer has blackjack, you lose"}
	case dealerScore > 21:
		out = Outcome{Result: model.ResultWin, Payout: bet * 2, Message: "You win"}
	case playerScore == dealerScore:
		out = Outcome{Result: model.ResultPush, Payout: bet, Message: "Push"}
	case playerScore > dealerScore:
		out = Outcome{Result: model.ResultWin, Payout: bet * 2, Message: "You win"}
	default:
		out = Outcome{Result: model.ResultLose, Payout: 0, Message: "You lose"}
	}

	r.settled = true
	return out, nil
}
