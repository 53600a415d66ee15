package models

import "time"

// User represents a customer account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Phone        string    `json:"phone" gorm:"type:varchar(32)"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Merchant represents a restaurant operator account.
type Merchant struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	StoreName    string    `json:"storeName" gorm:"type:varchar(100)"`
	CreatedAt    time.Time `json:"createdAt"`
}
