package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	"blackjack-service/internal/service/ledger"
	pkgAuth "blackjack-service/pkg/auth"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost       = 12
	maxLoginFailures = 5
	failureWindow    = 10 * time.Minute
)

// Service handles registration and login. Password hashing stays here; the
// ledger only ever sees the finished hash. The redis client holds short-lived
// failed-login counters and may be nil, which disables throttling.
type Service struct {
	ledger *ledger.Service
	rdb    *redis.Client
}

func NewService(ledgerSvc *ledger.Service, rdb *redis.Client) *Service {
	return &Service{
		ledger: ledgerSvc,
		rdb:    rdb,
	}
}

type LoginResult struct {
	Token    string      `json:"token"`
	ExpireAt time.Time   `json:"expireAt"`
	Account  AccountInfo `json:"account"`
	Balance  int64       `json:"balance"`
}

type AccountInfo struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Pseudo    string    `json:"pseudo"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Register creates the account (wallet and INIT entry included) and logs the
// player straight in.
func (s *Service) Register(ctx context.Context, email, pseudo, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	pseudo = strings.TrimSpace(pseudo)
	if !strings.Contains(email, "@") || pseudo == "" || len(password) < 6 {
		return nil, appErr.ErrInvalidRegistration
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.CreateAccount(ctx, email, pseudo, string(hash))
	if err != nil {
		return nil, err
	}
	return s.issueToken(ctx, account)
}

// Login verifies credentials, applies the idempotent daily bonus and issues
// a token. Failed attempts are counted per email with a sliding expiry.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, appErr.ErrInvalidCredentials
	}

	blocked, err := s.tooManyFailures(ctx, email)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, appErr.ErrTooManyLoginAttempts
	}

	account, err := s.ledger.FindAccountByEmail(ctx, email)
	if err != nil {
		if err == appErr.ErrAccountNotFound {
			s.recordFailure(ctx, email)
			return nil, appErr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !strings.EqualFold(account.Status, "active") {
		return nil, appErr.ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, email)
		return nil, appErr.ErrInvalidCredentials
	}

	if _, err := s.ledger.ApplyDailyCredit(ctx, account.ID); err != nil {
		return nil, err
	}
	s.clearFailures(ctx, email)

	return s.issueToken(ctx, account)
}

func (s *Service) issueToken(ctx context.Context, account *model.Account) (*LoginResult, error) {
	token, err := pkgAuth.GenerateToken(account.ID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	expireAt := time.Now().Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)
	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		Account: AccountInfo{
			ID:        account.ID,
			Email:     account.Email,
			Pseudo:    account.Pseudo,
			Status:    account.Status,
			CreatedAt: account.CreatedAt,
		},
		Balance: balance,
	}, nil
}

func (s *Service) tooManyFailures(ctx context.Context, email string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	count, err := s.rdb.Get(ctx, failureKey(email)).Int64()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= maxLoginFailures, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if s.rdb == nil {
		return
	}
	key := failureKey(email)
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.Log.Warn("failed to record login failure", zap.Error(err))
		return
	}
	if count == 1 {
		s.rdb.Expire(ctx, key, failureWindow)
	}
}

func (s *Service) clearFailures(ctx context.Context, email string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, failureKey(email))
}

func failureKey(email string) string {
	return fmt.Sprintf("login:fail:%s", email)
}
