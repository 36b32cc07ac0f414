// Package http wires the auth service's handlers, middleware, and routes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/pkg/httpx"
	"github.com/harborline/storefront/pkg/jwtx"
	"github.com/harborline/storefront/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookies      CookieConfig

	store               store.Store
	SessionService      *service.SessionService
	RegistrationService *service.RegistrationService
	VerificationService *service.VerificationService
	UserService         *service.UserService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	cookies CookieConfig,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		cookies:      cookies,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Credential endpoints get the strict per-IP limit; they are the ones
	// worth brute-forcing.
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(&RegisterHandler{RegistrationService: r.RegistrationService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /auth/login",
		httpx.Chain(&LoginHandler{SessionService: r.SessionService, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(&RefreshHandler{SessionService: r.SessionService, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(&LogoutHandler{SessionService: r.SessionService, Cookies: r.cookies},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /auth/verify-email",
		httpx.Chain(&VerifyEmailHandler{VerificationService: r.VerificationService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /auth/resend-verify",
		httpx.Chain(&ResendVerifyHandler{VerificationService: r.VerificationService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /auth/me",
		httpx.Chain(&MeHandler{UserService: r.UserService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
