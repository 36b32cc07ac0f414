package http

import (
	"errors"
	"net/http"

	"github.com/harborline/storefront/internal/auth/domain"
	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/pkg/authapi"
	"github.com/harborline/storefront/pkg/httpx"
	"github.com/harborline/storefront/pkg/slogx"
)

// RegisterHandler serves POST /auth/register.
type RegisterHandler struct {
	RegistrationService *service.RegistrationService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authapi.ErrValidation.WriteError(w)
		return
	}

	user, err := h.RegistrationService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			authapi.ErrValidation.WithDescription(err.Error()).WriteError(w)
		case errors.Is(err, service.ErrDuplicateEmail):
			authapi.ErrDuplicateEmail.WriteError(w)
		default:
			log.Error("registration failed", "err", err)
			authapi.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		User    authapi.User `json:"user"`
	}{
		Message: "registration successful, please verify your email",
		User:    sanitizeUser(user),
	})
}

// sanitizeUser maps a domain user onto the public wire shape, stripping
// every secret-bearing field.
func sanitizeUser(u domain.User) authapi.User {
	return authapi.User{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
