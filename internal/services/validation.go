package services

import (
	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the custom account rule registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on a programming error in the tag name.
	if err := v.RegisterValidation("account", validateAccount); err != nil {
		panic(err)
	}
	return v
}

// validateAccount accepts exactly 8 ASCII letters and digits with at least one of each.
func validateAccount(fl validator.FieldLevel) bool {
	return ValidAccountName(fl.Field().String())
}

// ValidAccountName reports whether name is a valid customer username.
func ValidAccountName(name string) bool {
	if len(name) != 8 {
		return false
	}
	var letter, digit bool
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= '0' && c <= '9':
			digit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			letter = true
		default:
			return false
		}
	}
	return letter && digit
}
