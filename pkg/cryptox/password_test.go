package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Set up a temporary pepper file for testing
	tmpDir := os.TempDir()
	pepperPath := filepath.Join(tmpDir, "test-pepper")
	SetPepperPath(pepperPath)

	// Clean up pepper file before and after tests
	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"empty password", ""},
		{"unicode password", "пароль密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, MinCost)
			require.NoError(t, err)
			require.NotEmpty(t, hash)
			require.NotEqual(t, tt.password, hash)

			require.NoError(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("same-password", MinCost)
	require.NoError(t, err)
	b, err := HashPassword("same-password", MinCost)
	require.NoError(t, err)

	require.NotEqual(t, a, b, "each hash should carry its own salt")
}

func TestHashPassword_CostBounds(t *testing.T) {
	_, err := HashPassword("password", MinCost-1)
	require.Error(t, err)

	_, err = HashPassword("password", MaxCost+1)
	require.Error(t, err)
}

func TestVerifyPassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("correct", MinCost)
	require.NoError(t, err)

	err = VerifyPassword("incorrect", hash)
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestVerifyPassword_GarbageHash(t *testing.T) {
	err := VerifyPassword("anything", "not-a-bcrypt-hash")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrPasswordMismatch)
}
