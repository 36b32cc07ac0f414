package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/pkg/authapi"
	"github.com/harborline/storefront/pkg/httpx"
	"github.com/harborline/storefront/pkg/slogx"
)

// LoginHandler serves POST /auth/login.
type LoginHandler struct {
	SessionService *service.SessionService
	Cookies        CookieConfig
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authapi.ErrValidation.WriteError(w)
		return
	}

	user, tokens, err := h.SessionService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			authapi.ErrValidation.WithDescription(err.Error()).WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			authapi.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrAccountLocked):
			authapi.ErrAccountLocked.WriteError(w)
		case errors.Is(err, service.ErrEmailNotVerified):
			authapi.ErrEmailNotVerified.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			authapi.ErrServerError.WriteError(w)
		}
		return
	}

	h.Cookies.SetRefreshCookie(w, tokens.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(user, tokens))
}

// RefreshHandler serves POST /auth/refresh.
//
// The refresh token arrives in the httpOnly cookie, or in the JSON body for
// cookie-less clients. A successful call rotates it; the old value is dead
// either way.
type RefreshHandler struct {
	SessionService *service.SessionService
	Cookies        CookieConfig
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.RefreshRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			authapi.ErrValidation.WriteError(w)
			return
		}
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)
	if token == "" {
		authapi.ErrMissingToken.WriteError(w)
		return
	}

	user, tokens, err := h.SessionService.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			// The session is gone; take the cookie with it.
			h.Cookies.ClearRefreshCookie(w)
			authapi.ErrInvalidRefreshToken.WriteError(w)
			return
		}
		log.Error("refresh failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.SetRefreshCookie(w, tokens.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(user, tokens))
}

// LogoutHandler serves POST /auth/logout. It answers 200 regardless of
// whether a live session was presented.
type LogoutHandler struct {
	SessionService *service.SessionService
	Cookies        CookieConfig
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authapi.RefreshRequest
	if r.ContentLength != 0 {
		// A malformed body still logs the caller out.
		_ = httpx.DecodeJSON(r, &req)
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)
	_ = h.SessionService.Logout(ctx, token)

	h.Cookies.ClearRefreshCookie(w)
	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{Message: "logged out"})
}

func tokenResponse(user domain.User, tokens service.Tokens) authapi.TokenResponse {
	return authapi.TokenResponse{
		AccessToken:  tokens.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(tokens.AccessExpiresAt).Seconds()),
		RefreshToken: tokens.RefreshToken,
		User:         sanitizeUser(user),
	}
}
