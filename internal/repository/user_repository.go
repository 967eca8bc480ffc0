package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/profile-service/internal/model"
)

// AccountRepo persists accounts in the `users` table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

// UsernameExists reports whether a row with this username is present.
func (r *AccountRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)",
		username).Scan(&exists)
	return exists, err
}

// Create inserts the account. The caller supplies the id and the bcrypt hash.
func (r *AccountRepo) Create(ctx context.Context, a model.Account) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password) VALUES (?, ?, ?, ?)",
		a.ID.String(), a.Username, a.Email, a.PasswordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

// GetByUsername fetches the account used for login. sql.ErrNoRows is
// returned unchanged when nothing matches.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (model.Account, error) {
	return r.scanOne(ctx,
		"SELECT id, username, email, password, email_verified, created_at FROM users WHERE username = ? LIMIT 1",
		username)
}

// GetByEmail fetches the most recent account registered with this email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.TrimSpace(email)
	return r.scanOne(ctx,
		"SELECT id, username, email, password, email_verified, created_at FROM users WHERE email = ? ORDER BY created_at DESC LIMIT 1",
		email)
}

// MarkEmailVerified flags every account registered under email as confirmed
// and returns how many rows changed.
func (r *AccountRepo) MarkEmailVerified(ctx context.Context, email string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified = TRUE WHERE email = ? AND email_verified = FALSE",
		email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AccountRepo) scanOne(ctx context.Context, query string, arg any) (model.Account, error) {
	var (
		a  model.Account
		id string
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&id, &a.Username, &a.Email, &a.PasswordHash, &a.EmailVerified, &a.CreatedAt)
	if err != nil {
		return model.Account{}, err
	}
	a.ID, err = uuid.Parse(id)
	if err != nil {
		return model.Account{}, fmt.Errorf("users.id %q: %w", id, err)
	}
	return a, nil
}
