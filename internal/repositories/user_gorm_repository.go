package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resto/internal/apperrors"
	"resto/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("username '%s': %w", user.Username, apperrors.ErrConflict)
		}
		return apperrors.Storage("create user", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with username %s: %w", username, apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage(fmt.Sprintf("get user by username %s", username), err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with ID %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage(fmt.Sprintf("get user by ID %d", id), err)
	}
	return &user, nil
}

// GORMMerchantRepository is a GORM implementation of MerchantRepository.
type GORMMerchantRepository struct {
	db *gorm.DB
}

// NewGORMMerchantRepository creates a new instance of GORMMerchantRepository.
func NewGORMMerchantRepository(db *gorm.DB) *GORMMerchantRepository {
	return &GORMMerchantRepository{db: db}
}

func (r *GORMMerchantRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	if err := r.db.WithContext(ctx).Create(merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("merchant username '%s': %w", merchant.Username, apperrors.ErrConflict)
		}
		return apperrors.Storage("create merchant", err)
	}
	return nil
}

func (r *GORMMerchantRepository) GetByUsername(ctx context.Context, username string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("merchant with username %s: %w", username, apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage(fmt.Sprintf("get merchant by username %s", username), err)
	}
	return &merchant, nil
}

func (r *GORMMerchantRepository) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("merchant with ID %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage(fmt.Sprintf("get merchant by ID %d", id), err)
	}
	return &merchant, nil
}

// GORMSessionRepository is a GORM implementation of SessionRepository.
type GORMSessionRepository struct {
	db *gorm.DB
}

// NewGORMSessionRepository creates a new instance of GORMSessionRepository.
func NewGORMSessionRepository(db *gorm.DB) *GORMSessionRepository {
	return &GORMSessionRepository{db: db}
}

func (r *GORMSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Omit("User", "Merchant").Create(session).Error; err != nil {
		return apperrors.Storage("create session", err)
	}
	return nil
}

func (r *GORMSessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session: %w", apperrors.ErrNotFound)
		}
		return nil, apperrors.Storage("get session by token", err)
	}
	return &session, nil
}
