package model

import "time"

// RefreshToken mirrors the 'refresh_tokens' table. Only the SHA-256 hash of
// the raw secret is ever stored; the raw value exists solely in the response
// that issued it. Rows are never deleted: revocation sets RevokedAt and
// lookups filter on validity, which keeps the table usable as an audit trail.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be redeemed at the given time.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}
