package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/pkg/cryptox"
	"github.com/harborline/storefront/pkg/jwtx"
	"github.com/harborline/storefront/pkg/slogx"
)

const (
	DefaultMaxFailedLogins = 5
	DefaultLockDuration    = 30 * time.Minute
)

// Tokens is the pair handed to a freshly authenticated client. RefreshToken
// is the opaque value; only its fingerprint is stored.
type Tokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionService owns login, refresh rotation, and logout.
type SessionService struct {
	Store  store.Store
	Signer *jwtx.Signer

	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	MaxFailedLogins      int
	LockDuration         time.Duration
	RequireVerifiedEmail bool

	// dummyHash burns a bcrypt comparison on unknown emails so lookup misses
	// and password mismatches take the same time.
	dummyHash string
}

func NewSessionService(st store.Store, signer *jwtx.Signer, bcryptCost int) (*SessionService, error) {
	dummy, err := cryptox.HashPassword("storefront-timing-equalizer", bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("precompute dummy hash: %w", err)
	}
	return &SessionService{
		Store:                st,
		Signer:               signer,
		AccessTTL:            jwtx.DefaultAccessTokenTTL,
		RefreshTTL:           jwtx.DefaultRefreshTokenTTL,
		MaxFailedLogins:      DefaultMaxFailedLogins,
		LockDuration:         DefaultLockDuration,
		RequireVerifiedEmail: true,
		dummyHash:            dummy,
	}, nil
}

// Login authenticates an email/password pair and opens a session.
//
// Failure ordering is deliberate: the password is always checked before the
// lock and verification states, so a wrong password on a locked account still
// counts as a failed attempt and the response never leaks which check failed
// beyond its own error.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.User, Tokens, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, Tokens{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	// 1. Look the account up. A miss still pays for a bcrypt comparison.
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, s.dummyHash)
			return domain.User{}, Tokens{}, ErrInvalidCredentials
		}
		return domain.User{}, Tokens{}, err
	}

	// 2. Check the password before anything else.
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.recordFailedAttempt(ctx, user, now)
			return domain.User{}, Tokens{}, ErrInvalidCredentials
		}
		return domain.User{}, Tokens{}, err
	}

	// 3. Correct password on a locked account does not open the lock early.
	if user.Locked(now) {
		l.Info("login rejected, account locked", slog.String("user_id", user.ID))
		return domain.User{}, Tokens{}, ErrAccountLocked
	}

	// 4. Unverified accounts hold valid credentials but no session.
	if s.RequireVerifiedEmail && !user.IsVerified {
		return domain.User{}, Tokens{}, ErrEmailNotVerified
	}

	// 5. Open the session: reset lockout bookkeeping and store the new
	// refresh fingerprint in one transaction.
	tokens, err := s.openSession(ctx, &user, now, true)
	if err != nil {
		return domain.User{}, Tokens{}, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented opaque value is matched by
// fingerprint, invalidated, and replaced. A token can therefore be redeemed
// exactly once.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.User, Tokens, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if refreshToken == "" {
		return domain.User{}, Tokens{}, ErrInvalidToken
	}
	fingerprint := cryptox.FingerprintToken(refreshToken)

	user, err := s.Store.Users().GetUserByRefreshTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, Tokens{}, ErrInvalidToken
		}
		return domain.User{}, Tokens{}, err
	}

	if !user.HasValidRefreshToken(now) {
		// Expired but not yet swept by housekeeping. Drop it now.
		if err := s.Store.Users().UpdateRefreshToken(ctx, user.ID, nil, nil); err != nil {
			l.Error("failed to clear expired refresh token",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
		return domain.User{}, Tokens{}, ErrInvalidToken
	}

	tokens, err := s.openSession(ctx, &user, now, false)
	if err != nil {
		return domain.User{}, Tokens{}, err
	}

	l.Info("refresh token rotated", slog.String("user_id", user.ID))
	return user, tokens, nil
}

// Logout revokes the session owning the presented refresh token. It always
// succeeds from the caller's point of view; an unknown or missing token
// reveals nothing.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	fingerprint := cryptox.FingerprintToken(refreshToken)
	if err := s.Store.Users().ClearRefreshTokenByHash(ctx, fingerprint); err != nil {
		slogx.FromContext(ctx).Error("logout revocation failed", slog.Any("error", err))
	}
	return nil
}

// openSession mints the access/refresh pair and persists the new refresh
// fingerprint, optionally resetting the lockout counters in the same
// transaction.
func (s *SessionService) openSession(ctx context.Context, user *domain.User, now time.Time, resetAttempts bool) (Tokens, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return Tokens{}, fmt.Errorf("generate refresh token: %w", err)
	}
	fingerprint := cryptox.FingerprintToken(opaque)
	refreshExpires := now.Add(s.RefreshTTL)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if resetAttempts && (user.FailedLoginAttempts > 0 || user.LockUntil != nil) {
			if err := tx.Users().UpdateLoginAttempts(ctx, user.ID, 0, nil); err != nil {
				return err
			}
		}
		return tx.Users().UpdateRefreshToken(ctx, user.ID, &fingerprint, &refreshExpires)
	})
	if err != nil {
		return Tokens{}, err
	}

	claims := jwtx.NewAccessClaims(user.ID, user.Role, user.Email, user.Name, s.Signer.Issuer(), s.AccessTTL, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return Tokens{}, fmt.Errorf("sign access token: %w", err)
	}

	user.FailedLoginAttempts = 0
	user.LockUntil = nil
	user.RefreshTokenHash = &fingerprint
	user.RefreshExpiresAt = &refreshExpires

	return Tokens{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(s.AccessTTL),
		RefreshToken:     opaque,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// recordFailedAttempt bumps the failed-login counter, locking the account
// once the threshold is reached. An expired lock restarts the count at one.
// Bookkeeping failures are logged and swallowed; the caller's answer is
// ErrInvalidCredentials either way.
func (s *SessionService) recordFailedAttempt(ctx context.Context, user domain.User, now time.Time) {
	l := slogx.FromContext(ctx)

	attempts := user.FailedLoginAttempts + 1
	lockUntil := user.LockUntil

	if user.LockUntil != nil && !user.LockUntil.After(now) {
		attempts = 1
		lockUntil = nil
	}

	if attempts >= s.maxFailed() && !user.Locked(now) {
		until := now.Add(s.lockDuration())
		lockUntil = &until
		l.Info("account locked after repeated failures",
			slog.String("user_id", user.ID),
			slog.Time("lock_until", until),
		)
	}

	if err := s.Store.Users().UpdateLoginAttempts(ctx, user.ID, attempts, lockUntil); err != nil {
		l.Error("failed to record login attempt",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}
}

func (s *SessionService) maxFailed() int {
	if s.MaxFailedLogins > 0 {
		return s.MaxFailedLogins
	}
	return DefaultMaxFailedLogins
}

func (s *SessionService) lockDuration() time.Duration {
	if s.LockDuration > 0 {
		return s.LockDuration
	}
	return DefaultLockDuration
}
