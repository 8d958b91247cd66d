package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	"blackjack-service/internal/repo"
	"blackjack-service/internal/service/ledger"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestGame(t *testing.T) (*gorm.DB, *Service, int64) {
	t.Helper()

	logger.InitLogger("release")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	config.GlobalConfig = &config.Config{
		Game: config.GameConfig{
			StartingBalance: 10000,
			DailyBonus:      1000,
			MinBet:          250,
			BetStep:         250,
		},
	}

	ledgerSvc := ledger.NewService(db)
	account, err := ledgerSvc.CreateAccount(context.Background(), "player@example.com", "player", "hash")
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return db, NewService(ledgerSvc), account.ID
}

func entryTypes(t *testing.T, db *gorm.DB, accountID int64) []string {
	t.Helper()
	var entries []model.LedgerEntry
	if err := db.Where("account_id = ?", accountID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("failed to load entries: %v", err)
	}
	types := make([]string, len(entries))
	for i, e := range entries {
		types[i] = e.Type
	}
	return types
}

func TestStandWinPaysDoubleTheBet(t *testing.T) {
	ctx := context.Background()
	db, svc, accountID := newTestGame(t)

	// Deal order: dealer hidden, dealer upcard, player, player.
	stubDeal(t,
		Card{Rank: Nine, Suit: Hearts},
		Card{Rank: Ten, Suit: Spades},
		Card{Rank: King, Suit: Clubs},
		Card{Rank: Queen, Suit: Diamonds},
	)

	state, err := svc.StartRound(ctx, accountID, 1000)
	if err != nil {
		t.Fatalf("start round failed: %v", err)
	}
	if state.Balance != 9000 {
		t.Fatalf("balance after bet = %d, want 9000", state.Balance)
	}
	if state.PlayerTotal != 20 {
		t.Fatalf("player total = %d, want 20", state.PlayerTotal)
	}
	if state.Settled {
		t.Fatal("round settled before the player acted")
	}

	state, err = svc.Stand(ctx, accountID)
	if err != nil {
		t.Fatalf("stand failed: %v", err)
	}
	if !state.Settled || state.Outcome == nil {
		t.Fatalf("round not settled after stand: %+v", state)
	}
	if state.Outcome.Result != model.ResultWin || state.Outcome.Payout != 2000 {
		t.Fatalf("unexpected outcome: %+v", state.Outcome)
	}
	if state.DealerTotal != 19 || !state.DealerRevealed {
		t.Fatalf("dealer should stand revealed on 19: %+v", state)
	}
	if state.Balance != 11000 {
		t.Fatalf("balance after win = %d, want 11000", state.Balance)
	}

	types := entryTypes(t, db, accountID)
	want := []string{model.TxnInit, model.TxnBet, model.TxnPayout}
	if len(types) != len(want) {
		t.Fatalf("ledger entries = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("ledger entries = %v, want %v", types, want)
		}
	}

	session, err := svc.ledger.GetSession(ctx, accountID, state.SessionID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.Result != model.ResultWin || session.TotalPayout != 2000 || session.EndedAt == nil {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestNaturalBlackjackSettlesOnDeal(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	stubDeal(t,
		Card{Rank: Nine, Suit: Hearts},
		Card{Rank: Ten, Suit: Spades},
		Card{Rank: Ace, Suit: Clubs},
		Card{Rank: King, Suit: Diamonds},
	)

	state, err := svc.StartRound(ctx, accountID, 1000)
	if err != nil {
		t.Fatalf("start round failed: %v", err)
	}
	if !state.Settled || state.Outcome == nil {
		t.Fatalf("natural blackjack must settle on the deal: %+v", state)
	}
	if !state.PlayerNaturalBlackjack {
		t.Fatal("player natural not flagged")
	}
	if state.Outcome.Result != model.ResultWin || state.Outcome.Payout != 2500 {
		t.Fatalf("unexpected outcome: %+v", state.Outcome)
	}
	if state.Balance != 11500 {
		t.Fatalf("balance = %d, want 11500", state.Balance)
	}
	// The dealer never draws: only hidden plus upcard.
	if len(state.DealerCards) != 2 {
		t.Fatalf("dealer cards = %v, want the initial two", state.DealerCards)
	}

	// The round is gone from the registry, so a fresh one may start.
	if _, err := svc.State(ctx, accountID); !errors.Is(err, appErr.ErrNoActiveRound) {
		t.Fatalf("expected ErrNoActiveRound after settlement, got %v", err)
	}
}

func TestHitToBustSettlesAsLoss(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	stubDeal(t,
		Card{Rank: Ten, Suit: Hearts},
		Card{Rank: Seven, Suit: Spades},
		Card{Rank: Ten, Suit: Clubs},
		Card{Rank: Six, Suit: Diamonds},
		Card{Rank: King, Suit: Hearts}, // hit card, busts at 26
	)

	state, err := svc.StartRound(ctx, accountID, 500)
	if err != nil {
		t.Fatalf("start round failed: %v", err)
	}
	if state.PlayerTotal != 16 {
		t.Fatalf("player total = %d, want 16", state.PlayerTotal)
	}

	state, err = svc.Hit(ctx, accountID)
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if !state.Settled || state.Outcome == nil {
		t.Fatalf("bust must settle the round: %+v", state)
	}
	if state.Outcome.Result != model.ResultLose || state.Outcome.Payout != 0 {
		t.Fatalf("unexpected outcome: %+v", state.Outcome)
	}
	if state.Balance != 9500 {
		t.Fatalf("balance after loss = %d, want 9500", state.Balance)
	}
}

func TestHitBelowTwentyOneKeepsRoundOpen(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	stubDeal(t,
		Card{Rank: Ten, Suit: Hearts},
		Card{Rank: Seven, Suit: Spades},
		Card{Rank: Five, Suit: Clubs},
		Card{Rank: Six, Suit: Diamonds},
		Card{Rank: Four, Suit: Hearts},
	)

	if _, err := svc.StartRound(ctx, accountID, 250); err != nil {
		t.Fatalf("start round failed: %v", err)
	}

	state, err := svc.Hit(ctx, accountID)
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if state.Settled {
		t.Fatal("round settled below twenty-one")
	}
	if state.PlayerTotal != 15 {
		t.Fatalf("player total = %d, want 15", state.PlayerTotal)
	}
	if state.DealerRevealed {
		t.Fatal("dealer revealed while the player is still acting")
	}
}

func TestStateMasksHiddenCard(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	hidden := Card{Rank: Nine, Suit: Hearts}
	stubDeal(t,
		hidden,
		Card{Rank: Ten, Suit: Spades},
		Card{Rank: Five, Suit: Clubs},
		Card{Rank: Six, Suit: Diamonds},
	)

	if _, err := svc.StartRound(ctx, accountID, 250); err != nil {
		t.Fatalf("start round failed: %v", err)
	}

	state, err := svc.State(ctx, accountID)
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if len(state.DealerCards) != 1 {
		t.Fatalf("dealer shows %d cards, want only the upcard", len(state.DealerCards))
	}
	if state.DealerCards[0] == hidden {
		t.Fatal("hidden card leaked through the state view")
	}
	if state.DealerTotal != 10 {
		t.Fatalf("dealer visible total = %d, want 10", state.DealerTotal)
	}

	state, err = svc.Stand(ctx, accountID)
	if err != nil {
		t.Fatalf("stand failed: %v", err)
	}
	if len(state.DealerCards) != 2 || state.DealerCards[0] != hidden {
		t.Fatalf("hidden card not revealed after stand: %v", state.DealerCards)
	}
	if state.DealerTotal != 19 {
		t.Fatalf("dealer total after reveal = %d, want 19", state.DealerTotal)
	}
}

func TestStartRoundRejectsSecondRound(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	stubDeal(t,
		Card{Rank: Nine, Suit: Hearts},
		Card{Rank: Ten, Suit: Spades},
		Card{Rank: Five, Suit: Clubs},
		Card{Rank: Six, Suit: Diamonds},
	)

	if _, err := svc.StartRound(ctx, accountID, 250); err != nil {
		t.Fatalf("start round failed: %v", err)
	}
	if _, err := svc.StartRound(ctx, accountID, 250); !errors.Is(err, appErr.ErrRoundInProgress) {
		t.Fatalf("expected ErrRoundInProgress, got %v", err)
	}
}

func TestStartRoundBetValidation(t *testing.T) {
	ctx := context.Background()
	db, svc, accountID := newTestGame(t)

	for _, bet := range []int64{0, 100, 300, -250} {
		if _, err := svc.StartRound(ctx, accountID, bet); !errors.Is(err, appErr.ErrInvalidBet) {
			t.Fatalf("bet %d: expected ErrInvalidBet, got %v", bet, err)
		}
	}

	// A rejected bet opens no session and debits nothing.
	var count int64
	if err := db.Model(&model.GameSession{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected bets opened %d sessions", count)
	}
	balance, err := svc.ledger.GetBalance(ctx, accountID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance != 10000 {
		t.Fatalf("balance = %d, want 10000", balance)
	}
}

func TestStartRoundInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	if _, err := svc.StartRound(ctx, accountID, 10250); !errors.Is(err, appErr.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestActionsWithoutActiveRound(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	if _, err := svc.Hit(ctx, accountID); !errors.Is(err, appErr.ErrNoActiveRound) {
		t.Fatalf("hit: expected ErrNoActiveRound, got %v", err)
	}
	if _, err := svc.Stand(ctx, accountID); !errors.Is(err, appErr.ErrNoActiveRound) {
		t.Fatalf("stand: expected ErrNoActiveRound, got %v", err)
	}
	if _, err := svc.State(ctx, accountID); !errors.Is(err, appErr.ErrNoActiveRound) {
		t.Fatalf("state: expected ErrNoActiveRound, got %v", err)
	}
}

func TestPushReturnsTheBet(t *testing.T) {
	ctx := context.Background()
	_, svc, accountID := newTestGame(t)

	stubDeal(t,
		Card{Rank: Nine, Suit: Hearts},
		Card{Rank: Ten, Suit: Spades},
		Card{Rank: Ten, Suit: Clubs},
		Card{Rank: Nine, Suit: Diamonds},
	)

	if _, err := svc.StartRound(ctx, accountID, 1000); err != nil {
		t.Fatalf("start round failed: %v", err)
	}
	state, err := svc.Stand(ctx, accountID)
	if err != nil {
		t.Fatalf("stand failed: %v", err)
	}
	if state.Outcome == nil || state.Outcome.Result != model.ResultPush || state.Outcome.Payout != 1000 {
		t.Fatalf("unexpected outcome: %+v", state.Outcome)
	}
	if state.Balance != 10000 {
		t.Fatalf("balance after push = %d, want 10000", state.Balance)
	}
}
