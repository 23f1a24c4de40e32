package model

import "time"

// User mirrors the 'users' table. PasswordHash is never serialized; handlers
// build their own response shapes.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Name         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
