package service

import "errors"

var (
	// ErrValidation covers malformed or missing request fields.
	ErrValidation = errors.New("validation_error")

	// ErrDuplicateEmail is returned when registration hits an existing account.
	ErrDuplicateEmail = errors.New("duplicate_email")

	// ErrInvalidCredentials is the single answer for unknown email and wrong
	// password alike. Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrAccountLocked means the account is inside its lockout window.
	ErrAccountLocked = errors.New("account_locked")

	// ErrEmailNotVerified means credentials checked out but the address was
	// never confirmed.
	ErrEmailNotVerified = errors.New("email_not_verified")

	// ErrInvalidToken covers unknown, expired, or already-consumed tokens,
	// both verification and refresh.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrResendThrottled means a verification email was requested again
	// before the cooldown elapsed.
	ErrResendThrottled = errors.New("resend_throttled")
)
