package model

import (
	"time"

	"gorm.io/datatypes"
)

// Ledger entry types. The ledger is append-only; the wallet balance is a
// cached projection of these rows and is only ever written alongside one.
const (
	TxnInit        = "INIT"
	TxnDailyCredit = "DAILY_CREDIT"
	TxnBet         = "BET"
	TxnPayout      = "PAYOUT"
)

// Round results persisted on the session row.
const (
	ResultWin  = "WIN"
	ResultLose = "LOSE"
	ResultPush = "PUSH"
)

type Account struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"unique;not null"`
	Pseudo       string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	Status       string `gorm:"default:active;not null"` // active/disabled
	Role         string `gorm:"default:player;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Wallet struct {
	AccountID       int64  `gorm:"primaryKey"`
	Balance         int64  `gorm:"not null"`
	LastDailyCredit string `gorm:"not null"` // calendar date, YYYY-MM-DD
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GameSession records one played round: the bet it debited, the payout it
// credited, and a snapshot of the final hands.
type GameSession struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	AccountID   int64 `gorm:"index;not null"`
	StartedAt   time.Time
	EndedAt     *time.Time
	TotalBet    int64
	TotalPayout int64
	Result      string
	HandsJSON   datatypes.JSON `gorm:"type:jsonb"`
}

// LedgerEntry is immutable once written: never updated, never deleted.
type LedgerEntry struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	AccountID     int64  `gorm:"index;not null"`
	SessionID     *int64 `gorm:"index"`
	Type          string `gorm:"not null"`
	Amount        int64  // signed: negative for BET, non-negative otherwise
	BalanceBefore int64
	BalanceAfter  int64
	Note          string
	CreatedAt     time.Time
}
