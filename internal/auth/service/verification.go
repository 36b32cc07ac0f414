package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	mailer "github.com/harborline/storefront/internal/auth/mail"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/pkg/cryptox"
	"github.com/harborline/storefront/pkg/slogx"
)

// DefaultResendCooldown is the minimum gap between verification emails for
// one account.
const DefaultResendCooldown = 60 * time.Second

// VerificationService confirms email addresses and reissues verification
// tokens.
type VerificationService struct {
	Store store.Store
	Mail  mailer.Mailer

	VerifyTokenTTL time.Duration
	ResendCooldown time.Duration
}

// Verify consumes a verification token for the given user. The token and the
// user id must both match; every failure mode collapses into ErrInvalidToken
// so the endpoint cannot be used to probe account state.
func (s *VerificationService) Verify(ctx context.Context, userID, token string) error {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if userID == "" || token == "" {
		return ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	if user.IsVerified || user.VerifyTokenHash == nil {
		return ErrInvalidToken
	}
	if user.VerifyExpiresAt == nil || now.After(*user.VerifyExpiresAt) {
		return ErrInvalidToken
	}

	fingerprint := cryptox.FingerprintToken(token)
	if subtle.ConstantTimeCompare([]byte(fingerprint), []byte(*user.VerifyTokenHash)) != 1 {
		return ErrInvalidToken
	}

	if err := s.Store.Users().MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	l.Info("email verified", slog.String("user_id", user.ID))
	return nil
}

// Resend issues a fresh verification token and invalidates the previous one.
//
// Unknown and already-verified addresses return nil so the endpoint does not
// disclose whether an account exists. Only the throttle is surfaced, since
// the caller has by then proven they triggered a recent send.
func (s *VerificationService) Resend(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return nil
	}

	if user.VerifySentAt != nil && now.Sub(*user.VerifySentAt) < s.cooldown() {
		return ErrResendThrottled
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	expires := now.Add(s.verifyTTL())
	if err := s.Store.Users().SetVerification(ctx, user.ID, cryptox.FingerprintToken(token), expires, now); err != nil {
		return err
	}

	if err := s.Mail.SendVerification(ctx, user.Email, token, user.ID); err != nil {
		l.Error("verification email resend failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	l.Info("verification email reissued", slog.String("user_id", user.ID))
	return nil
}

func (s *VerificationService) verifyTTL() time.Duration {
	if s.VerifyTokenTTL > 0 {
		return s.VerifyTokenTTL
	}
	return DefaultVerifyTokenTTL
}

func (s *VerificationService) cooldown() time.Duration {
	if s.ResendCooldown > 0 {
		return s.ResendCooldown
	}
	return DefaultResendCooldown
}
