package http

import (
	"errors"
	"net/http"

	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/pkg/authapi"
	"github.com/harborline/storefront/pkg/httpx"
	"github.com/harborline/storefront/pkg/slogx"
)

// MeHandler serves GET /auth/me. It sits behind the authn middleware, so the
// user id always comes from a verified access token.
type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived the account.
			authapi.ErrInvalidRefreshToken.WithDescription("account no longer exists").WriteError(w)
			return
		}
		log.Error("profile lookup failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sanitizeUser(user))
}
