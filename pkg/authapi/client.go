package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client is a small HTTP client for the storefront auth service. Its cookie
// jar carries the refresh cookie between calls, so Login followed by Refresh
// works the same way a browser session does.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	accessToken string
}

// NewClient creates a client with a fresh cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

// AccessToken returns the bearer token captured by the last Login or Refresh.
func (c *Client) AccessToken() string { return c.accessToken }

// SetAccessToken overrides the bearer token used for authenticated calls.
func (c *Client) SetAccessToken(token string) { c.accessToken = token }

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var out struct {
		Message string `json:"message"`
		User    User   `json:"user"`
	}
	if err := c.post(ctx, "/auth/register", req, &out, http.StatusCreated); err != nil {
		return User{}, err
	}
	return out.User, nil
}

// Login authenticates and stores the access token for later calls. The
// refresh cookie lands in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	var out TokenResponse
	if err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &out, http.StatusOK); err != nil {
		return TokenResponse{}, err
	}
	c.accessToken = out.AccessToken
	return out, nil
}

// Refresh rotates the session using the jar's refresh cookie.
func (c *Client) Refresh(ctx context.Context) (TokenResponse, error) {
	var out TokenResponse
	if err := c.post(ctx, "/auth/refresh", RefreshRequest{}, &out, http.StatusOK); err != nil {
		return TokenResponse{}, err
	}
	c.accessToken = out.AccessToken
	return out, nil
}

// RefreshWithToken rotates the session using an explicit refresh token
// instead of the cookie.
func (c *Client) RefreshWithToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var out TokenResponse
	if err := c.post(ctx, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &out, http.StatusOK); err != nil {
		return TokenResponse{}, err
	}
	c.accessToken = out.AccessToken
	return out, nil
}

// Logout revokes the current session and drops the stored access token.
func (c *Client) Logout(ctx context.Context) error {
	var out MessageResponse
	if err := c.post(ctx, "/auth/logout", struct{}{}, &out, http.StatusOK); err != nil {
		return err
	}
	c.accessToken = ""
	return nil
}

// VerifyEmail redeems an emailed verification token.
func (c *Client) VerifyEmail(ctx context.Context, userID, token string) error {
	var out MessageResponse
	return c.post(ctx, "/auth/verify-email", VerifyEmailRequest{ID: userID, Token: token}, &out, http.StatusOK)
}

// ResendVerify asks for a fresh verification email.
func (c *Client) ResendVerify(ctx context.Context, email string) error {
	var out MessageResponse
	return c.post(ctx, "/auth/resend-verify", ResendVerifyRequest{Email: email}, &out, http.StatusOK)
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auth/me", nil)
	if err != nil {
		return User{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("send request: %w", err)
	}

	var out User
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return User{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, target any, expectedStatus int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	return decodeJSON(resp, target, expectedStatus)
}

// decodeJSON decodes a response into target, turning non-2xx responses into
// typed *APIError values.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = ErrorCodeServerError
			apiErr.Description = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return apiErr
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
