package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto/internal/apperrors"
	"resto/internal/metrics"
	"resto/internal/models"
	"resto/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a login session stays valid.
const DefaultSessionTTL = 24 * time.Hour

// SessionCache is an optional read-through cache for session rows.
type SessionCache interface {
	Get(ctx context.Context, token string) (*models.Session, bool, error)
	Set(ctx context.Context, session *models.Session, ttl time.Duration) error
}

// AuthService handles registration, login and session resolution for users and merchants.
type AuthService struct {
	store      repositories.Store
	validate   *validator.Validate
	pepper     []byte
	sessionTTL time.Duration
	hashCost   int
	cache      SessionCache
	log        logrus.FieldLogger
	now        func() time.Time
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithSessionCache puts cache in front of session lookups.
func WithSessionCache(cache SessionCache) AuthOption {
	return func(s *AuthService) { s.cache = cache }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repositories.Store, pepper string, sessionTTL time.Duration, log logrus.FieldLogger, opts ...AuthOption) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	s := &AuthService{
		store:      store,
		validate:   NewValidator(),
		pepper:     []byte(pepper),
		sessionTTL: sessionTTL,
		hashCost:   bcrypt.DefaultCost,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type userRegistration struct {
	Username string `validate:"account"`
	Password string `validate:"min=6"`
}

type merchantRegistration struct {
	Username string `validate:"required"`
	Password string `validate:"required,min=6"`
}

// RegisterUser creates a customer account.
func (s *AuthService) RegisterUser(ctx context.Context, username, password, phone string) error {
	if err := s.validate.Struct(userRegistration{Username: username, Password: password}); err != nil {
		return validationError(err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{Username: username, PasswordHash: hash, Phone: phone}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("User registered")
	return nil
}

// RegisterMerchant creates a merchant account.
func (s *AuthService) RegisterMerchant(ctx context.Context, username, password, storeName string) error {
	if err := s.validate.Struct(merchantRegistration{Username: username, Password: password}); err != nil {
		return validationError(err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}

	merchant := &models.Merchant{Username: username, PasswordHash: hash, StoreName: storeName}
	if err := s.store.Merchants().Create(ctx, merchant); err != nil {
		return fmt.Errorf("failed to register merchant: %w", err)
	}
	s.log.WithField("merchant_id", merchant.ID).Info("Merchant registered")
	return nil
}

// LoginUser checks a customer's credentials and opens a session.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (*models.SessionToken, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		metrics.RecordLogin(string(models.PrincipalUser), false)
		return nil, err
	}
	if err := s.checkPassword(user.PasswordHash, password); err != nil {
		metrics.RecordLogin(string(models.PrincipalUser), false)
		return nil, err
	}

	uid := user.ID
	token, err := s.openSession(ctx, &models.Session{UserID: &uid})
	if err != nil {
		return nil, err
	}
	metrics.RecordLogin(string(models.PrincipalUser), true)
	token.PrincipalID = user.ID
	token.Kind = models.PrincipalUser
	token.Username = user.Username
	return token, nil
}

// LoginMerchant checks a merchant's credentials and opens a session.
func (s *AuthService) LoginMerchant(ctx context.Context, username, password string) (*models.SessionToken, error) {
	merchant, err := s.store.Merchants().GetByUsername(ctx, username)
	if err != nil {
		metrics.RecordLogin(string(models.PrincipalMerchant), false)
		return nil, err
	}
	if err := s.checkPassword(merchant.PasswordHash, password); err != nil {
		metrics.RecordLogin(string(models.PrincipalMerchant), false)
		return nil, err
	}

	mid := merchant.ID
	token, err := s.openSession(ctx, &models.Session{MerchantID: &mid})
	if err != nil {
		return nil, err
	}
	metrics.RecordLogin(string(models.PrincipalMerchant), true)
	token.PrincipalID = merchant.ID
	token.Kind = models.PrincipalMerchant
	token.Username = merchant.Username
	return token, nil
}

// AuthenticateUser returns the customer bound to token.
func (s *AuthService) AuthenticateUser(ctx context.Context, token string) (*models.User, error) {
	session, err := s.activeSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Kind() != models.PrincipalUser {
		return nil, fmt.Errorf("session is not bound to a user: %w", apperrors.ErrAuth)
	}
	return s.sessionUser(ctx, *session.UserID)
}

// AuthenticateMerchant returns the merchant bound to token.
func (s *AuthService) AuthenticateMerchant(ctx context.Context, token string) (*models.Merchant, error) {
	session, err := s.activeSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Kind() != models.PrincipalMerchant {
		return nil, fmt.Errorf("session is not bound to a merchant: %w", apperrors.ErrAuth)
	}
	return s.sessionMerchant(ctx, *session.MerchantID)
}

// ResolvePrincipal returns whichever principal token is bound to.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error) {
	session, err := s.activeSession(ctx, token)
	if err != nil {
		return nil, err
	}

	switch session.Kind() {
	case models.PrincipalUser:
		user, err := s.sessionUser(ctx, *session.UserID)
		if err != nil {
			return nil, err
		}
		return &models.Principal{Kind: models.PrincipalUser, User: user}, nil
	case models.PrincipalMerchant:
		merchant, err := s.sessionMerchant(ctx, *session.MerchantID)
		if err != nil {
			return nil, err
		}
		return &models.Principal{Kind: models.PrincipalMerchant, Merchant: merchant}, nil
	default:
		return nil, fmt.Errorf("session %d has no principal: %w", session.ID, apperrors.ErrAuth)
	}
}

func (s *AuthService) openSession(ctx context.Context, session *models.Session) (*models.SessionToken, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, apperrors.Storage("generate session token", err)
	}
	session.Token = token
	// UTC keeps expiry comparisons consistent in stores that compare timestamps as text.
	session.ExpiresAt = s.now().UTC().Add(s.sessionTTL)

	if err := s.store.Sessions().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &models.SessionToken{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// activeSession finds the unexpired session for token, consulting the cache first.
func (s *AuthService) activeSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("missing session token: %w", apperrors.ErrAuth)
	}
	now := s.now().UTC()

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, token)
		switch {
		case err != nil:
			s.log.WithError(err).Warn("Session cache lookup failed, falling back to database")
		case hit && cached.ExpiresAt.After(now):
			return cached, nil
		}
	}

	session, err := s.store.Sessions().GetActiveByToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("invalid or expired session: %w", apperrors.ErrAuth)
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, session, session.ExpiresAt.Sub(now)); err != nil {
			s.log.WithError(err).Warn("Failed to cache session")
		}
	}
	return session, nil
}

func (s *AuthService) sessionUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("session user is gone: %w", apperrors.ErrAuth)
	}
	return user, err
}

func (s *AuthService) sessionMerchant(ctx context.Context, id uint) (*models.Merchant, error) {
	merchant, err := s.store.Merchants().GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("session merchant is gone: %w", apperrors.ErrAuth)
	}
	return merchant, err
}

// peppered mixes the application secret into password. bcrypt reads at most 72 bytes,
// so the fixed-size MAC is hashed instead of the raw concatenation.
func (s *AuthService) peppered(password string) []byte {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(password))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword(s.peppered(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

func (s *AuthService) checkPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), s.peppered(password)); err != nil {
		return fmt.Errorf("invalid credentials: %w", apperrors.ErrAuth)
	}
	return nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// validationError turns validator output into an ErrValidation with a readable reason.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "account":
			msgs = append(msgs, field+" must be exactly 8 letters and digits, with at least one of each")
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", field, e.Tag()))
		}
	}
	return apperrors.Validation("%s", strings.Join(msgs, "; "))
}
