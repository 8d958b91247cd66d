package ledger

import (
	"context"
	"fmt"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Service owns every balance-affecting write. Each mutation runs inside a
// single database transaction: the ledger row, the wallet projection and the
// session counters commit together or not at all. Balance checks use guarded
// UPDATEs so the read-check-write sequence cannot interleave with another
// writer on the same account.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateAccount inserts the account and, in the same transaction, its wallet
// with the starting balance plus the INIT ledger entry for that amount.
func (s *Service) CreateAccount(ctx context.Context, email, pseudo, passwordHash string) (*model.Account, error) {
	starting := config.GlobalConfig.Game.StartingBalance
	now := time.Now()

	var account model.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&model.Account{}).Where("email = ?", email).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return appErr.ErrEmailTaken
		}

		account = model.Account{
			Email:        email,
			Pseudo:       pseudo,
			PasswordHash: passwordHash,
			Status:       "active",
			Role:         "player",
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		wallet := model.Wallet{
			AccountID:       account.ID,
			Balance:         starting,
			LastDailyCredit: now.Format(dateLayout),
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}

		entry := model.LedgerEntry{
			AccountID:     account.ID,
			Type:          model.TxnInit,
			Amount:        starting,
			BalanceBefore: 0,
			BalanceAfter:  starting,
			Note:          "Initial balance",
			CreatedAt:     now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("account created",
		zap.Int64("accountID", account.ID),
		zap.Int64("startingBalance", starting))
	return &account, nil
}

func (s *Service) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *Service) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	var account model.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetBalance returns the wallet projection, 0 when no wallet row exists. A
// missing row cannot happen for an account created through CreateAccount.
func (s *Service) GetBalance(ctx context.Context, accountID int64) (int64, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return wallet.Balance, nil
}

// ApplyDailyCredit grants the daily bonus at most once per calendar day. The
// date comparison is part of the guarded UPDATE, so two rapid calls cannot
// both credit even when racing.
func (s *Service) ApplyDailyCredit(ctx context.Context, accountID int64) (bool, error) {
	bonus := config.GlobalConfig.Game.DailyBonus
	now := time.Now()
	today := now.Format(dateLayout)

	credited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Wallet{}).
			Where("account_id = ? AND last_daily_credit < ?", accountID, today).
			Updates(map[string]interface{}{
				"balance":           gorm.Expr("balance + ?", bonus),
				"last_daily_credit": today,
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Already credited today, or no wallet row. Silent no-op.
			return nil
		}

		var wallet model.Wallet
		if err := tx.Where("account_id = ?", accountID).First(&wallet).Error; err != nil {
			return err
		}

		entry := model.LedgerEntry{
			AccountID:     accountID,
			Type:          model.TxnDailyCredit,
			Amount:        bonus,
			BalanceBefore: wallet.Balance - bonus,
			BalanceAfter:  wallet.Balance,
			Note:          "Daily bonus",
			CreatedAt:     now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if credited {
		logger.Log.Info("daily bonus credited",
			zap.Int64("accountID", accountID),
			zap.Int64("bonus", bonus))
	}
	return credited, nil
}

// StartSession opens the session row that will group a bet with its payout.
func (s *Service) StartSession(ctx context.Context, accountID int64) (int64, error) {
	session := model.GameSession{
		AccountID: accountID,
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return 0, err
	}
	return session.ID, nil
}

// PlaceBet debits the bet. The balance check and debit are one guarded
// UPDATE: two concurrent bets on the same account cannot both pass when the
// balance only funds one.
func (s *Service) PlaceBet(ctx context.Context, accountID, sessionID, amount int64) error {
	if amount <= 0 {
		return appErr.ErrInvalidBet
	}
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Wallet{}).
			Where("account_id = ? AND balance >= ?", accountID, amount).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance - ?", amount),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return appErr.ErrInsufficientFunds
		}

		// The row lock taken by the UPDATE holds until commit, so this read
		// observes the exact post-debit balance.
		var wallet model.Wallet
		if err := tx.Where("account_id = ?", accountID).First(&wallet).Error; err != nil {
			return err
		}

		entry := model.LedgerEntry{
			AccountID:     accountID,
			SessionID:     &sessionID,
			Type:          model.TxnBet,
			Amount:        -amount,
			BalanceBefore: wallet.Balance + amount,
			BalanceAfter:  wallet.Balance,
			Note:          "Bet",
			CreatedAt:     now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		sres := tx.Model(&model.GameSession{}).
			Where("id = ? AND account_id = ?", sessionID, accountID).
			UpdateColumn("total_bet", gorm.Expr("total_bet + ?", amount))
		if sres.Error != nil {
			return sres.Error
		}
		if sres.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", appErr.ErrSessionNotFound, sessionID)
		}
		return nil
	})
}

// Settle credits the payout (possibly 0) and closes the session with its
// result tag and end timestamp, all in one transaction.
func (s *Service) Settle(ctx context.Context, accountID, sessionID, payout int64, result string, hands datatypes.JSON) error {
	if payout < 0 {
		return appErr.ErrInvalidBet
	}
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Wallet{}).
			Where("account_id = ?", accountID).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", payout),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: no wallet for account %d", appErr.ErrAccountNotFound, accountID)
		}

		var wallet model.Wallet
		if err := tx.Where("account_id = ?", accountID).First(&wallet).Error; err != nil {
			return err
		}

		entry := model.LedgerEntry{
			AccountID:     accountID,
			SessionID:     &sessionID,
			Type:          model.TxnPayout,
			Amount:        payout,
			BalanceBefore: wallet.Balance - payout,
			BalanceAfter:  wallet.Balance,
			Note:          "Round settlement",
			CreatedAt:     now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"total_payout": gorm.Expr("total_payout + ?", payout),
			"result":       result,
			"ended_at":     now,
		}
		if len(hands) > 0 {
			updates["hands_json"] = hands
		}
		sres := tx.Model(&model.GameSession{}).
			Where("id = ? AND account_id = ?", sessionID, accountID).
			Updates(updates)
		if sres.Error != nil {
			return sres.Error
		}
		if sres.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", appErr.ErrSessionNotFound, sessionID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Log.Info("session settled",
		zap.Int64("accountID", accountID),
		zap.Int64("sessionID", sessionID),
		zap.Int64("payout", payout),
		zap.String("result", result))
	return nil
}

// ListTransactions returns the most recent ledger entries for the account.
func (s *Service) ListTransactions(ctx context.Context, accountID int64, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries := make([]model.LedgerEntry, 0, limit)
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) GetSession(ctx context.Context, accountID, sessionID int64) (*model.GameSession, error) {
	var session model.GameSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", sessionID, accountID).
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}
