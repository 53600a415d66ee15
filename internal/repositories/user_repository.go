package repositories

import (
	"context"
	"time"

	"resto/internal/models"
)

// UserRepository defines the interface for customer account data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// MerchantRepository defines the interface for merchant account data access.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *models.Merchant) error
	GetByUsername(ctx context.Context, username string) (*models.Merchant, error)
	GetByID(ctx context.Context, id uint) (*models.Merchant, error)
}

// SessionRepository defines the interface for login session data access.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	// GetActiveByToken returns the session for token if it expires after now.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error)
}
