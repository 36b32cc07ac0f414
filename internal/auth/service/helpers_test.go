package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/internal/auth/store/drivers/sqlite"
	"github.com/harborline/storefront/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

// testBcryptCost keeps hashing fast in tests while exercising real bcrypt.
const testBcryptCost = 4

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestSigner(t *testing.T) *jwtx.Signer {
	t.Helper()

	signer, err := jwtx.NewSigner([]byte("0123456789abcdef0123456789abcdef"), "storefront-auth-test")
	require.NoError(t, err)
	return signer
}

func newSessionService(t *testing.T, st store.Store) *SessionService {
	t.Helper()

	svc, err := NewSessionService(st, newTestSigner(t), testBcryptCost)
	require.NoError(t, err)
	svc.LockDuration = 30 * time.Minute
	return svc
}

// recordingMailer captures handed-off verification tokens so tests can redeem
// them.
type recordingMailer struct {
	mu    sync.Mutex
	sends []sentMail
}

type sentMail struct {
	Email  string
	Token  string
	UserID string
}

func (m *recordingMailer) SendVerification(_ context.Context, email, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentMail{Email: email, Token: token, UserID: userID})
	return nil
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sends)
	return m.sends[len(m.sends)-1]
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}
