package model

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a row of the `users` table. The id is generated by the
// application before the insert; username uniqueness is enforced by a unique
// key on the column.
//
// Fields:
//
//	ID            – users.id (UUIDv4 stored as CHAR(36)).
//	Username      – users.username, unique.
//	Email         – users.email; also the OTP cache key suffix.
//	PasswordHash  – users.password, bcrypt hash.
//	EmailVerified – users.email_verified, set once the OTP was confirmed.
//	CreatedAt     – users.created_at.
type Account struct {
	ID            uuid.UUID
	Username      string
	Email         string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
}
