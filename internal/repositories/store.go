package repositories

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Store is the storage handle injected into the services. It hands out repositories that
// share one connection (or one transaction, inside Transaction).
type Store interface {
	Dishes() DishRepository
	Users() UserRepository
	Merchants() MerchantRepository
	Sessions() SessionRepository
	Orders() OrderRepository
	// Transaction runs fn against a Store bound to a single serializable transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is a Store backed by a *gorm.DB.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a Store over db.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// DB returns the underlying handle.
func (s *GORMStore) DB() *gorm.DB { return s.db }

func (s *GORMStore) Dishes() DishRepository        { return NewGORMDishRepository(s.db) }
func (s *GORMStore) Users() UserRepository         { return NewGORMUserRepository(s.db) }
func (s *GORMStore) Merchants() MerchantRepository { return NewGORMMerchantRepository(s.db) }
func (s *GORMStore) Sessions() SessionRepository   { return NewGORMSessionRepository(s.db) }
func (s *GORMStore) Orders() OrderRepository       { return NewGORMOrderRepository(s.db) }

func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
