package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/internal/auth/store/drivers/sqlite"
	"github.com/harborline/storefront/pkg/idx"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestUser(email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz012345678901234567890123456",
		Role:         domain.RoleUser,
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Users().CreateUser(ctx, newTestUser("dup@example.com")))

	err := s.Users().CreateUser(ctx, newTestUser("DUP@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("Mixed.Case@Example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByEmail(ctx, "mixed.case@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "mixed.case@example.com", got.Email)

	got, err = s.Users().GetUserByEmail(ctx, "MIXED.CASE@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = s.Users().GetUserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("refresh@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	hash := "fingerprint-1"
	expires := time.Now().Add(time.Hour).UTC()
	require.NoError(t, s.Users().UpdateRefreshToken(ctx, u.ID, &hash, &expires))

	got, err := s.Users().GetUserByRefreshTokenHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.RefreshExpiresAt)
	require.WithinDuration(t, expires, *got.RefreshExpiresAt, time.Second)

	require.NoError(t, s.Users().ClearRefreshTokenByHash(ctx, hash))

	_, err = s.Users().GetUserByRefreshTokenHash(ctx, hash)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Clearing an already-cleared hash stays silent.
	require.NoError(t, s.Users().ClearRefreshTokenByHash(ctx, hash))
}

func TestUpdateLoginAttempts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("attempts@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	lock := time.Now().Add(30 * time.Minute).UTC()
	require.NoError(t, s.Users().UpdateLoginAttempts(ctx, u.ID, 5, &lock))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.FailedLoginAttempts)
	require.NotNil(t, got.LockUntil)

	require.NoError(t, s.Users().UpdateLoginAttempts(ctx, u.ID, 0, nil))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, got.FailedLoginAttempts)
	require.Nil(t, got.LockUntil)

	err = s.Users().UpdateLoginAttempts(ctx, idx.New().String(), 1, nil)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestVerificationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser("verify@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now().UTC()
	require.NoError(t, s.Users().SetVerification(ctx, u.ID, "verify-hash", now.Add(24*time.Hour), now))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.IsVerified)
	require.NotNil(t, got.VerifyTokenHash)
	require.Equal(t, "verify-hash", *got.VerifyTokenHash)
	require.NotNil(t, got.VerifySentAt)

	require.NoError(t, s.Users().MarkVerified(ctx, u.ID))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.IsVerified)
	require.Nil(t, got.VerifyTokenHash)
	require.Nil(t, got.VerifyExpiresAt)
	require.Nil(t, got.VerifySentAt)
}

func TestClearExpired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale := newTestUser("stale@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, stale))
	fresh := newTestUser("fresh@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, fresh))

	past := time.Now().Add(-time.Hour).UTC()
	future := time.Now().Add(time.Hour).UTC()
	staleHash := "stale-refresh"
	freshHash := "fresh-refresh"
	require.NoError(t, s.Users().UpdateRefreshToken(ctx, stale.ID, &staleHash, &past))
	require.NoError(t, s.Users().UpdateRefreshToken(ctx, fresh.ID, &freshHash, &future))
	require.NoError(t, s.Users().SetVerification(ctx, stale.ID, "stale-verify", past, past.Add(-24*time.Hour)))

	require.NoError(t, s.Users().ClearExpiredRefreshTokens(ctx))
	require.NoError(t, s.Users().ClearExpiredVerifications(ctx))

	got, err := s.Users().GetUserByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Nil(t, got.RefreshTokenHash)
	require.Nil(t, got.VerifyTokenHash)

	got, err = s.Users().GetUserByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sentinel := context.Canceled
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, newTestUser("tx@example.com")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Users().GetUserByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
