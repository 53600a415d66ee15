package models

import "time"

// Session binds an opaque bearer token to exactly one principal until ExpiresAt.
type Session struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Token      string    `json:"-" gorm:"uniqueIndex;type:varchar(128);not null"`
	UserID     *uint     `json:"userId,omitempty" gorm:"index;check:chk_sessions_principal,(user_id IS NULL) <> (merchant_id IS NULL)"`
	User       *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	MerchantID *uint     `json:"merchantId,omitempty" gorm:"index"`
	Merchant   *Merchant `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"index;not null"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PrincipalKind tells which account table a session points at.
type PrincipalKind string

const (
	PrincipalUser     PrincipalKind = "user"
	PrincipalMerchant PrincipalKind = "merchant"
)

// Kind returns the principal kind the session is bound to, or "" for a malformed row.
func (s *Session) Kind() PrincipalKind {
	switch {
	case s.UserID != nil && s.MerchantID == nil:
		return PrincipalUser
	case s.MerchantID != nil && s.UserID == nil:
		return PrincipalMerchant
	default:
		return ""
	}
}

// Principal is an authenticated actor. Exactly one of User or Merchant is set, matching Kind.
type Principal struct {
	Kind     PrincipalKind
	User     *User
	Merchant *Merchant
}

// ID returns the numeric id of whichever account the principal holds.
func (p *Principal) ID() uint {
	if p.User != nil {
		return p.User.ID
	}
	if p.Merchant != nil {
		return p.Merchant.ID
	}
	return 0
}

// SessionToken is handed back to a client after a successful login.
type SessionToken struct {
	Token       string        `json:"token"`
	PrincipalID uint          `json:"principalId"`
	Kind        PrincipalKind `json:"kind"`
	Username    string        `json:"username"`
	ExpiresAt   time.Time     `json:"expiresAt"`
}
