package http

import (
	"errors"
	"net/http"

	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/pkg/authapi"
	"github.com/harborline/storefront/pkg/httpx"
	"github.com/harborline/storefront/pkg/slogx"
)

// VerifyEmailHandler serves POST /auth/verify-email.
type VerifyEmailHandler struct {
	VerificationService *service.VerificationService
}

func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.VerifyEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authapi.ErrValidation.WriteError(w)
		return
	}

	if err := h.VerificationService.Verify(ctx, req.ID, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			authapi.ErrInvalidVerifyToken.WriteError(w)
			return
		}
		log.Error("email verification failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{Message: "email verified"})
}

// ResendVerifyHandler serves POST /auth/resend-verify.
type ResendVerifyHandler struct {
	VerificationService *service.VerificationService
}

func (h *ResendVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.ResendVerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authapi.ErrValidation.WriteError(w)
		return
	}

	if err := h.VerificationService.Resend(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrResendThrottled) {
			authapi.ErrTooManyRequests.WriteError(w)
			return
		}
		log.Error("verification resend failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	// The same acknowledgement goes out whether or not the address exists.
	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{
		Message: "if the account exists and is unverified, an email has been sent",
	})
}
