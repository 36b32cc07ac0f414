package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the minimum HMAC secret length we accept. Anything
// shorter undermines the HS256 security level.
const MinSecretBytes = 32

// Verifier is anything that can verify a raw JWT and return its claims.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// Signer signs and verifies access tokens with a shared HMAC-SHA256 secret.
// It implements Verifier so the same instance can back the authn middleware.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner creates an HS256 signer bound to an issuer. The issuer is stamped
// on signed claims' validation and enforced on Verify.
func NewSigner(secret []byte, issuer string) (*Signer, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("jwtx: signing secret must be at least %d bytes, got %d", MinSecretBytes, len(secret))
	}
	return &Signer{secret: secret, issuer: issuer}, nil
}

// Alg returns the JWT "alg" header value this signer produces.
func (s *Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Issuer returns the issuer this signer stamps and enforces.
func (s *Signer) Issuer() string { return s.issuer }

// Sign serializes and signs the claims.
func (s *Signer) Sign(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

// Verify parses a raw token, checks the HS256 signature and standard time
// claims, and enforces the configured issuer.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := claims.ValidateIssuer(s.issuer); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return err
	}
}
