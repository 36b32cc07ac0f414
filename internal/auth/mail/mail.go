// Package mail defines the outbound mail boundary for the auth service.
//
// Actual delivery is owned by the notification pipeline; this service only
// hands off the verification payload. The log-backed implementation is what
// runs in development and in tests.
package mail

import (
	"context"
	"log/slog"
)

// Mailer delivers account emails. Implementations must be safe for
// concurrent use.
type Mailer interface {
	// SendVerification delivers the email-verification message carrying the
	// one-time token and the user id the confirmation endpoint expects.
	SendVerification(ctx context.Context, email, token, userID string) error
}

// LogMailer writes outbound mail to the structured log instead of
// delivering it.
type LogMailer struct {
	Logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, token, userID string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "verification email queued",
		slog.String("email", email),
		slog.String("user_id", userID),
		slog.String("token", token),
	)
	return nil
}
