// Package utils provides the token codec and password hashing helpers shared
// by the auth service and the middleware.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT together with its expiry. Access tokens
// are short-lived and verified purely by signature and expiry; no database
// lookup happens on the request path.
type AccessToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

// Identity is the payload carried by a verified access token.
type Identity struct {
	UserID uint64
	Email  string
}

// NewAccessToken builds and signs an HS256 JWT for a user. Claims are the
// subject (user id), email, expiry and issued-at.
func NewAccessToken(secret string, userID uint64, email string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates raw against secret and returns the
// identity it encodes. Any failure at all (bad signature, wrong algorithm,
// expired, malformed claims) yields nil; callers treat nil as
// unauthenticated and nothing else.
func VerifyAccessToken(secret, raw string) *Identity {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC, including "none".
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, ok := claims["sub"].(float64) // JSON numbers decode as float64
	if !ok || sub < 1 {
		return nil
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil
	}
	return &Identity{UserID: uint64(sub), Email: email}
}

// NewRefreshSecret returns a fresh opaque refresh-token secret: 48 bytes of
// cryptographically secure randomness, hex encoded. The value is a pure
// bearer secret, not a JWT.
func NewRefreshSecret() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashRefreshSecret returns the hex SHA-256 digest of a raw refresh secret.
// Only this digest is stored or used for lookup; SHA-256 is sufficient here
// because the input is high-entropy random data, not a password.
func HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
