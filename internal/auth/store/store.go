package store

import (
	"context"
	"errors"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns an
	// error and committing otherwise. This is the recommended way to run
	// multi-step writes (e.g. the post-login counter reset + token rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a user up by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByRefreshTokenHash finds the owner of a refresh token fingerprint.
	GetUserByRefreshTokenHash(ctx context.Context, hash string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken, including when a
	// uniqueness race slipped past an earlier existence check.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateLoginAttempts sets the failed-attempt counter and lockout
	// timestamp, bumping updated_at.
	UpdateLoginAttempts(ctx context.Context, userID string, attempts int, lockUntil *time.Time) error

	// UpdateRefreshToken overwrites the stored refresh token fingerprint and
	// expiry. Passing nils clears the session.
	UpdateRefreshToken(ctx context.Context, userID string, hash *string, expiresAt *time.Time) error

	// ClearRefreshTokenByHash revokes the session owning the fingerprint.
	// It is a no-op when no row matches.
	ClearRefreshTokenByHash(ctx context.Context, hash string) error

	// SetVerification stores a fresh verification token fingerprint with its
	// expiry and sent-at throttle timestamp.
	SetVerification(ctx context.Context, userID string, tokenHash string, expiresAt, sentAt time.Time) error

	// MarkVerified flips is_verified and clears all verification fields.
	MarkVerified(ctx context.Context, userID string) error

	// ClearExpiredRefreshTokens is housekeeping: drops refresh fingerprints
	// whose expiry has passed.
	ClearExpiredRefreshTokens(ctx context.Context) error

	// ClearExpiredVerifications is housekeeping: drops verification tokens
	// whose expiry has passed.
	ClearExpiredVerifications(ctx context.Context) error
}
