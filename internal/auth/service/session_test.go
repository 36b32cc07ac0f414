package service

import (
	"context"
	"testing"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
	"github.com/harborline/storefront/pkg/cryptox"

	"github.com/stretchr/testify/require"
)

// registerVerified creates a verified account ready for login tests.
func registerVerified(t *testing.T, svc *SessionService, email, password string) domain.User {
	t.Helper()
	ctx := context.Background()

	mailer := &recordingMailer{}
	reg := &RegistrationService{Store: svc.Store, Mail: mailer, BcryptCost: testBcryptCost}
	user, err := reg.Register(ctx, "Session Tester", email, password)
	require.NoError(t, err)

	require.NoError(t, svc.Store.Users().MarkVerified(ctx, user.ID))
	user.IsVerified = true
	return user
}

func TestLogin_Success(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "login@example.com", "hunter2hunter2")
	ctx := context.Background()

	got, tokens, err := svc.Login(ctx, "LOGIN@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	claims, err := svc.Signer.Verify(tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, domain.RoleUser, claims.Role)
	require.Equal(t, "login@example.com", claims.Email)

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	require.Equal(t, cryptox.FingerprintToken(tokens.RefreshToken), *stored.RefreshTokenHash)
}

func TestLogin_WrongPassword(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "wrongpw@example.com", "hunter2hunter2")
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "wrongpw@example.com", "not-the-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.FailedLoginAttempts)
	require.Nil(t, stored.LockUntil)
}

func TestLogin_UnknownEmail(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_LockoutAfterMaxFailures(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	svc.MaxFailedLogins = 3
	user := registerVerified(t, svc, "lockout@example.com", "hunter2hunter2")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := svc.Login(ctx, "lockout@example.com", "bad-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockUntil)
	require.True(t, stored.Locked(time.Now().UTC()))

	// Correct password does not open the lock early.
	_, _, err = svc.Login(ctx, "lockout@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, ErrAccountLocked)
}

func TestLogin_ExpiredLockRestartsCount(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "expired-lock@example.com", "hunter2hunter2")
	ctx := context.Background()

	past := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, st.Users().UpdateLoginAttempts(ctx, user.ID, 5, &past))

	// A failure after the lock window restarts counting at one.
	_, _, err := svc.Login(ctx, "expired-lock@example.com", "bad-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.FailedLoginAttempts)
	require.Nil(t, stored.LockUntil)

	// A success then clears everything.
	_, _, err = svc.Login(ctx, "expired-lock@example.com", "hunter2hunter2")
	require.NoError(t, err)

	stored, err = st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedLoginAttempts)
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	ctx := context.Background()

	reg := &RegistrationService{Store: st, Mail: &recordingMailer{}, BcryptCost: testBcryptCost}
	_, err := reg.Register(ctx, "Unverified", "unverified@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "unverified@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, ErrEmailNotVerified)

	// Wrong password on the unverified account still reads as bad credentials,
	// not as a verification problem.
	_, _, err = svc.Login(ctx, "unverified@example.com", "bad-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	svc.RequireVerifiedEmail = false
	_, _, err = svc.Login(ctx, "unverified@example.com", "hunter2hunter2")
	require.NoError(t, err)
}

func TestLogin_TimingParity(t *testing.T) {
	if testing.Short() {
		t.Skip("timing measurement")
	}

	st := newTestStore(t)
	svc := newSessionService(t, st)
	registerVerified(t, svc, "timing@example.com", "hunter2hunter2")
	ctx := context.Background()

	const rounds = 5

	measure := func(email string) time.Duration {
		var total time.Duration
		for i := 0; i < rounds; i++ {
			start := time.Now()
			_, _, _ = svc.Login(ctx, email, "always-wrong-pw")
			total += time.Since(start)
		}
		return total / rounds
	}

	known := measure("timing@example.com")
	unknown := measure("ghost@example.com")

	// Both paths pay for one bcrypt comparison, so neither should dwarf the
	// other. Generous bounds keep this stable on loaded CI machines.
	ratio := float64(known) / float64(unknown)
	require.Greater(t, ratio, 0.2, "known-email path much faster than unknown")
	require.Less(t, ratio, 5.0, "known-email path much slower than unknown")
}

func TestRefresh_RotatesToken(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "rotate@example.com", "hunter2hunter2")
	ctx := context.Background()

	_, first, err := svc.Login(ctx, "rotate@example.com", "hunter2hunter2")
	require.NoError(t, err)

	got, second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The old token is spent.
	_, _, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The new one works.
	_, _, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "stale-refresh@example.com", "hunter2hunter2")
	ctx := context.Background()

	_, tokens, err := svc.Login(ctx, "stale-refresh@example.com", "hunter2hunter2")
	require.NoError(t, err)

	hash := cryptox.FingerprintToken(tokens.RefreshToken)
	past := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, st.Users().UpdateRefreshToken(ctx, user.ID, &hash, &past))

	_, _, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The expired fingerprint was dropped on the way out.
	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)
}

func TestRefresh_UnknownToken(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)

	_, _, err := svc.Refresh(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "logout@example.com", "hunter2hunter2")
	ctx := context.Background()

	_, tokens, err := svc.Login(ctx, "logout@example.com", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)

	_, _, err = svc.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Logout never complains, even about garbage.
	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))
	require.NoError(t, svc.Logout(ctx, ""))
	require.NoError(t, svc.Logout(ctx, "unknown-token"))
}
