package domain

import "time"

// Roles a storefront account can hold.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is the credential-store record. The email is stored lowercase; every
// secret-adjacent field holds a derived value (bcrypt hash or SHA-256
// fingerprint), never plaintext.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt encoded
	Role         string

	// Email verification state. A non-nil VerifyTokenHash always pairs with a
	// non-nil VerifyExpiresAt.
	IsVerified      bool
	VerifyTokenHash *string
	VerifyExpiresAt *time.Time
	VerifySentAt    *time.Time // throttles resend requests

	// Login lockout state.
	FailedLoginAttempts int
	LockUntil           *time.Time

	// Single active refresh token, stored as a SHA-256 fingerprint.
	RefreshTokenHash *string
	RefreshExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is under an active lockout at now.
func (u User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// HasValidRefreshToken reports whether the stored refresh token fingerprint
// is present and unexpired at now.
func (u User) HasValidRefreshToken(now time.Time) bool {
	return u.RefreshTokenHash != nil &&
		u.RefreshExpiresAt != nil &&
		u.RefreshExpiresAt.After(now)
}
