// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// testJWTSecret is substituted when APP_ENV=test so tests never depend on a
// real secret being present. It is rejected outside the test environment by
// the minimum-length rule alone never being bypassed there.
const testJWTSecret = "taskhive-test-secret-0123456789abcdef"

// minJWTSecretLen is the minimum byte length accepted for JWT_SECRET outside
// the test environment.
const minJWTSecretLen = 32

// Config holds all runtime configuration. Token TTLs are parsed from the
// string forms "Nh" (hours) and "Nd" (days) at load time.
type Config struct {
	Env        string        // application environment: dev, test, prod
	Port       string        // HTTP port to listen on
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string        // secret used to sign access tokens
	AccessTTL  time.Duration // access token lifetime, default 1h
	RefreshTTL time.Duration // refresh token lifetime, default 30d
	BcryptCost int           // bcrypt cost factor for password hashing
}

// Load reads configuration from the environment. Missing required values
// are fatal: an absent or too-short JWT secret must stop the process at
// startup rather than fail the first login at runtime.
func Load() Config {
	env := envOr("APP_ENV", "dev")

	secret := os.Getenv("JWT_SECRET")
	if env == "test" {
		secret = testJWTSecret
	} else if len(secret) < minJWTSecretLen {
		log.Fatalf("JWT_SECRET must be set and at least %d bytes", minJWTSecretLen)
	}

	return Config{
		Env:        env,
		Port:       envOr("APP_PORT", "8080"),
		DBUser:     must("DB_USER"),
		DBPass:     os.Getenv("DB_PASS"), // empty allowed
		DBHost:     must("DB_HOST"),
		DBPort:     must("DB_PORT"),
		DBName:     must("DB_NAME"),
		JWTSecret:  secret,
		AccessTTL:  ParseTTL(os.Getenv("ACCESS_TOKEN_TTL"), time.Hour),
		RefreshTTL: ParseTTL(os.Getenv("REFRESH_TOKEN_TTL"), 30*24*time.Hour),
		BcryptCost: envIntOr("BCRYPT_COST", 12),
	}
}

// ParseTTL parses a duration string with a trailing 'h' (hours) or 'd'
// (days) suffix, e.g. "1h" or "30d". Anything unparseable, including a
// non-positive count, falls back to def.
func ParseTTL(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return def
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return def
	}
	switch s[len(s)-1] {
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	}
	return def
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
