package game

import (
	"context"
	"encoding/json"
	"sync"

	"blackjack-service/internal/config"
	"blackjack-service/internal/service/ledger"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// activeRound pairs a live round with the session that debited its bet. The
// bet recorded here is the exact amount the ledger debited and is the amount
// every payout computation uses.
type activeRound struct {
	round     *Round
	sessionID int64
	bet       int64
}

// Service drives the required protocol around a round: start session, debit
// the bet, play to a terminal state, settle the round, credit the payout.
// One active round per account; the round itself is mutated only under the
// registry lock.
type Service struct {
	ledger *ledger.Service

	mu     sync.Mutex
	rounds map[int64]*activeRound
}

func NewService(ledgerSvc *ledger.Service) *Service {
	return &Service{
		ledger: ledgerSvc,
		rounds: make(map[int64]*activeRound),
	}
}

// RoundState is the caller-facing view. The dealer's concealed card is
// omitted until revealed; before that the dealer total covers only the
// visible cards.
type RoundState struct {
	SessionID          int64    `json:"sessionId"`
	Bet                int64    `json:"bet"`
	PlayerCards        []Card   `json:"playerCards"`
	PlayerTotal        int      `json:"playerTotal"`
	DealerCards        []Card   `json:"dealerCards"`
	DealerTotal        int      `json:"dealerTotal"`
	DealerRevealed     bool     `json:"dealerRevealed"`
	Settled            bool     `json:"settled"`
	Outcome            *Outcome `json:"outcome,omitempty"`
	Balance            int64    `json:"balance"`
	PlayerNaturalBlackjack bool `json:"playerNaturalBlackjack"`
}

type handsSnapshot struct {
	Player []Card `json:"player"`
	Dealer []Card `json:"dealer"`
}

// StartRound opens a session, debits the bet and deals. If the player is
// dealt a natural blackjack the round resolves immediately without dealer
// draws; the dealer's own natural is judged against the initial two cards.
func (s *Service) StartRound(ctx context.Context, accountID, bet int64) (*RoundState, error) {
	if err := validateBet(bet); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[accountID]; ok {
		return nil, appErr.ErrRoundInProgress
	}

	sessionID, err := s.ledger.StartSession(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.PlaceBet(ctx, accountID, sessionID, bet); err != nil {
		return nil, err
	}

	round := &Round{}
	if err := round.Start(); err != nil {
		return nil, err
	}
	ar := &activeRound{round: round, sessionID: sessionID, bet: bet}
	s.rounds[accountID] = ar

	logger.Log.Info("round started",
		zap.Int64("accountID", accountID),
		zap.Int64("sessionID", sessionID),
		zap.Int64("bet", bet))

	var outcome *Outcome
	if round.IsPlayerNaturalBlackjack() {
		outcome, err = s.finishRound(ctx, accountID, ar)
		if err != nil {
			return nil, err
		}
	}
	return s.buildState(ctx, accountID, ar, outcome)
}

// Hit draws one card for the player. The engine never settles on its own, so
// the service checks the new total: at 21 or above the dealer plays out and
// the round settles.
func (s *Service) Hit(ctx context.Context, accountID int64) (*RoundState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ar, ok := s.rounds[accountID]
	if !ok {
		return nil, appErr.ErrNoActiveRound
	}

	if _, err := ar.round.PlayerHit(); err != nil {
		return nil, err
	}

	var outcome *Outcome
	if ar.round.PlayerTotal() >= 21 {
		if err := ar.round.PlayDealerTurn(); err != nil {
			return nil, err
		}
		var err error
		outcome, err = s.finishRound(ctx, accountID, ar)
		if err != nil {
			return nil, err
		}
	}
	return s.buildState(ctx, accountID, ar, outcome)
}

// Stand ends the player's turn: the dealer plays out and the round settles.
func (s *Service) Stand(ctx context.Context, accountID int64) (*RoundState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ar, ok := s.rounds[accountID]
	if !ok {
		return nil, appErr.ErrNoActiveRound
	}

	if err := ar.round.PlayerStand(); err != nil {
		return nil, err
	}
	outcome, err := s.finishRound(ctx, accountID, ar)
	if err != nil {
		return nil, err
	}
	return s.buildState(ctx, accountID, ar, outcome)
}

// State returns the current view of the caller's active round.
func (s *Service) State(ctx context.Context, accountID int64) (*RoundState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ar, ok := s.rounds[accountID]
	if !ok {
		return nil, appErr.ErrNoActiveRound
	}
	return s.buildState(ctx, accountID, ar, nil)
}

// finishRound settles the round against the exact bet that was debited and
// credits the payout. The registry entry is released only after the ledger
// write succeeds.
func (s *Service) finishRound(ctx context.Context, accountID int64, ar *activeRound) (*Outcome, error) {
	outcome, err := ar.round.Settle(ar.bet)
	if err != nil {
		return nil, err
	}

	snapshot := handsSnapshot{
		Player: ar.round.PlayerCards(),
		Dealer: ar.round.DealerVisibleCards(),
	}
	if hidden, ok := ar.round.HiddenCard(); ok {
		snapshot.Dealer = append([]Card{hidden}, snapshot.Dealer...)
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Settle(ctx, accountID, ar.sessionID, outcome.Payout, outcome.Result, datatypes.JSON(raw)); err != nil {
		return nil, err
	}

	delete(s.rounds, accountID)
	return &outcome, nil
}

func (s *Service) buildState(ctx context.Context, accountID int64, ar *activeRound, outcome *Outcome) (*RoundState, error) {
	balance, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	round := ar.round
	state := &RoundState{
		SessionID:              ar.sessionID,
		Bet:                    ar.bet,
		PlayerCards:            round.PlayerCards(),
		PlayerTotal:            round.PlayerTotal(),
		DealerCards:            round.DealerVisibleCards(),
		DealerTotal:            round.DealerVisibleTotal(),
		DealerRevealed:         round.IsDealerRevealed(),
		Settled:                round.IsSettled(),
		Outcome:                outcome,
		Balance:                balance,
		PlayerNaturalBlackjack: round.IsPlayerNaturalBlackjack(),
	}
	if round.IsDealerRevealed() {
		if hidden, ok := round.HiddenCard(); ok {
			state.DealerCards = append([]Card{hidden}, state.DealerCards...)
		}
		state.DealerTotal = round.DealerTotal()
	}
	return state, nil
}

func validateBet(bet int64) error {
	cfg := config.GlobalConfig.Game
	if bet < cfg.MinBet || bet%cfg.BetStep != 0 {
		return appErr.ErrInvalidBet
	}
	return nil
}
