package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/harborline/storefront/pkg/authapi"

	"github.com/stretchr/testify/require"
)

func TestLockout(t *testing.T) {
	env := setupAuthServer(t)
	client := newAPIClient(t, env)
	ctx := context.Background()

	registerAndVerify(t, env, client, "lockout@example.com")

	// Burn through the failure budget.
	for i := 0; i < env.Sessions.MaxFailedLogins; i++ {
		_, err := client.Login(ctx, "lockout@example.com", "wrong-password")
		requireAPIError(t, err, http.StatusUnauthorized, authapi.ErrorCodeInvalidCreds)
	}

	// Even the correct password is refused now.
	_, err := client.Login(ctx, "lockout@example.com", testPassword)
	requireAPIError(t, err, http.StatusLocked, authapi.ErrorCodeAccountLocked)
}

func TestLockout_CounterResetsOnSuccess(t *testing.T) {
	env := setupAuthServer(t)
	client := newAPIClient(t, env)
	ctx := context.Background()

	registerAndVerify(t, env, client, "reset@example.com")

	// A few failures, but under the threshold.
	for i := 0; i < env.Sessions.MaxFailedLogins-1; i++ {
		_, err := client.Login(ctx, "reset@example.com", "wrong-password")
		requireAPIError(t, err, http.StatusUnauthorized, authapi.ErrorCodeInvalidCreds)
	}

	// Success resets the counter.
	_, err := client.Login(ctx, "reset@example.com", testPassword)
	require.NoError(t, err)

	// So the budget is full again.
	for i := 0; i < env.Sessions.MaxFailedLogins-1; i++ {
		_, err := client.Login(ctx, "reset@example.com", "wrong-password")
		requireAPIError(t, err, http.StatusUnauthorized, authapi.ErrorCodeInvalidCreds)
	}
	_, err = client.Login(ctx, "reset@example.com", testPassword)
	require.NoError(t, err)
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	env := setupAuthServer(t)
	client := newAPIClient(t, env)
	ctx := context.Background()

	registerAndVerify(t, env, client, "exists@example.com")

	_, errUnknown := client.Login(ctx, "ghost@example.com", testPassword)
	_, errWrongPw := client.Login(ctx, "exists@example.com", "wrong-password")

	requireAPIError(t, errUnknown, http.StatusUnauthorized, authapi.ErrorCodeInvalidCreds)
	requireAPIError(t, errWrongPw, http.StatusUnauthorized, authapi.ErrorCodeInvalidCreds)

	// Identical wire responses for the two failure modes.
	require.Equal(t, errUnknown.Error(), errWrongPw.Error())
}
