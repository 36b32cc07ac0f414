package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeeping_SweepsExpiredSecrets(t *testing.T) {
	st := newTestStore(t)
	svc := newSessionService(t, st)
	user := registerVerified(t, svc, "sweep@example.com", "hunter2hunter2")
	ctx := context.Background()

	hash := "stale-fingerprint"
	past := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, st.Users().UpdateRefreshToken(ctx, user.ID, &hash, &past))
	require.NoError(t, st.Users().SetVerification(ctx, user.ID, "stale-verify", past, past))

	hk := NewHousekeepingService(st, slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)
	require.Nil(t, stored.VerifyTokenHash)
}
