package repo

import (
	"blackjack-service/internal/config"
	"blackjack-service/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDB connects to the configured database and migrates the schema. The
// returned handle is passed to the service container; there is no package
// level connection.
func OpenDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the four relations backing the ledger. Shared with tests,
// which run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Account{},
		&model.Wallet{},
		&model.GameSession{},
		&model.LedgerEntry{},
	)
}
