package authapi

import "time"

// User is the sanitized account representation returned by the API. Password
// hashes, token fingerprints, and lockout bookkeeping never appear here.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token for clients that cannot use the
// cookie, e.g. native apps. When the cookie is present the body may be empty.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type VerifyEmailRequest struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type ResendVerifyRequest struct {
	Email string `json:"email"`
}

// TokenResponse is returned by login and refresh. The refresh token itself
// travels in the httpOnly cookie and, for cookie-less clients, in the body.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         User   `json:"user"`
}

// MessageResponse is the generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is shared by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
