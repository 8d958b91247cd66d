package service

import (
	"blackjack-service/internal/service/auth"
	"blackjack-service/internal/service/game"
	"blackjack-service/internal/service/ledger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Ledger *ledger.Service
	Auth   *auth.Service
	Game   *game.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	ledgerSvc := ledger.NewService(db)
	return &Container{
		Ledger: ledgerSvc,
		Auth:   auth.NewService(ledgerSvc, rdb),
		Game:   game.NewService(ledgerSvc),
	}
}
