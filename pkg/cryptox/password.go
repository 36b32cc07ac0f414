package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost bounds for bcrypt. DefaultCost keeps an interactive login in the
// tens-of-milliseconds range on current hardware.
const (
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
	DefaultCost = 10
)

var ErrPasswordMismatch = errors.New("cryptox: password does not match")

// HashPassword derives a bcrypt hash of the password at the given cost.
// The pepper, if configured, is appended to the password before hashing so a
// leaked database alone is not enough for an offline attack.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinCost || cost > MaxCost {
		return "", fmt.Errorf("cryptox: bcrypt cost %d out of range [%d, %d]", cost, MinCost, MaxCost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password+GetPepper()), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// The work factor is encoded in the hash itself, so verification cost tracks
// whatever cost the hash was created with.
func VerifyPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+GetPepper()))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
