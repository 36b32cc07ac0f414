package app

import (
	"os"
	"strconv"
	"time"

	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/pkg/cryptox"
	"github.com/harborline/storefront/pkg/jwtx"
)

type Config struct {
	JWTSecret string // Required: HMAC secret for access tokens (min 32 bytes)
	Issuer    string // Optional: issuer claim for tokens (default: storefront-auth)

	AccessTokenTTL       time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL      time.Duration // Optional: refresh token lifetime (default: 168h)
	BcryptCost           int           // Optional: bcrypt work factor (default: 10)
	MaxFailedLogins      int           // Optional: failures before lockout (default: 5)
	LockoutDuration      time.Duration // Optional: lockout window (default: 30m)
	RequireVerifiedEmail bool          // Optional: block logins until verified (default: true)
	VerifyTokenTTL       time.Duration // Optional: verification token lifetime (default: 24h)
	ResendCooldown       time.Duration // Optional: gap between verification emails (default: 60s)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./auth.db)
	PepperFile           string        // Optional: path to password pepper file (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		Issuer:    getEnvOrDefault("AUTH_ISSUER", "storefront-auth"),

		AccessTokenTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:      getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		BcryptCost:           getEnvIntOrDefault("AUTH_BCRYPT_COST", cryptox.DefaultCost),
		MaxFailedLogins:      getEnvIntOrDefault("AUTH_MAX_FAILED_LOGINS", service.DefaultMaxFailedLogins),
		LockoutDuration:      getEnvLockoutDuration("AUTH_LOCKOUT_DURATION", service.DefaultLockDuration),
		RequireVerifiedEmail: getEnvBoolOrDefault("AUTH_REQUIRE_VERIFIED_EMAIL", true),
		VerifyTokenTTL:       getEnvDurationOrDefault("AUTH_VERIFY_TOKEN_TTL", service.DefaultVerifyTokenTTL),
		ResendCooldown:       getEnvDurationOrDefault("AUTH_RESEND_COOLDOWN", service.DefaultResendCooldown),

		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}

// getEnvLockoutDuration accepts either a duration string ("30m") or a bare
// integer, which is read as milliseconds for compatibility with older
// deployments that configured the lockout that way.
func getEnvLockoutDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}
