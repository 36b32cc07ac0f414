package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
	mailer "github.com/harborline/storefront/internal/auth/mail"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/pkg/cryptox"
	"github.com/harborline/storefront/pkg/idx"
	"github.com/harborline/storefront/pkg/slogx"
)

const (
	MinPasswordLength = 8
	MaxNameLength     = 50

	// DefaultVerifyTokenTTL is how long an emailed verification token stays
	// redeemable.
	DefaultVerifyTokenTTL = 24 * time.Hour
)

// RegistrationService creates accounts and issues email-verification tokens.
type RegistrationService struct {
	Store store.Store
	Mail  mailer.Mailer

	BcryptCost     int
	VerifyTokenTTL time.Duration
}

// Register creates a new unverified account and hands the verification token
// to the mailer. Mail delivery failure never fails the registration.
func (s *RegistrationService) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	// 1. Validate and normalize input.
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if err := validateRegistration(name, email, password); err != nil {
		return domain.User{}, err
	}

	// 2. Hash the password before the user row exists anywhere.
	hash, err := cryptox.HashPassword(password, s.BcryptCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	// 3. Mint the verification token. Only its fingerprint is persisted.
	verifyToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.User{}, fmt.Errorf("generate verification token: %w", err)
	}
	verifyHash := cryptox.FingerprintToken(verifyToken)

	now := time.Now().UTC()
	expires := now.Add(s.verifyTTL())

	user := domain.User{
		ID:              idx.New().String(),
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		Role:            domain.RoleUser,
		VerifyTokenHash: &verifyHash,
		VerifyExpiresAt: &expires,
		VerifySentAt:    &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// 4. Insert. The unique index is the final arbiter of duplicates.
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}

	// 5. Hand off to the mailer. The account stands whether or not the email
	// goes out; the user can ask for a resend.
	if err := s.Mail.SendVerification(ctx, user.Email, verifyToken, user.ID); err != nil {
		l.Error("verification email send failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

func (s *RegistrationService) verifyTTL() time.Duration {
	if s.VerifyTokenTTL > 0 {
		return s.VerifyTokenTTL
	}
	return DefaultVerifyTokenTTL
}

// NormalizeEmail lowercases and trims an address so lookups and uniqueness
// agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(name, email, password string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrValidation, MaxNameLength)
	}
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}
