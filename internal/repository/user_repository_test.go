package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/profile-service/internal/model"
)

func newAccountRepoWithMock(t *testing.T) (*AccountRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAccountRepo(db), mock
}

func TestUsernameExists(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \?\)`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.UsernameExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsernameExists_DBError(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(errors.New("db down"))

	_, err := repo.UsernameExists(context.Background(), "alice")
	require.Error(t, err)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, username, email, password) VALUES (?, ?, ?, ?)")).
		WithArgs(id.String(), "alice", "a@x.com", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), model.Account{ID: id, Username: "alice", Email: "a@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateUsername(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice' for key 'uq_users_username'"})

	err := repo.Create(context.Background(), model.Account{ID: uuid.New(), Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestCreate_OtherError(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), model.Account{ID: uuid.New(), Username: "alice"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameExists)
}

func TestGetByUsername(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, username, email, password, email_verified, created_at FROM users WHERE username = \?`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "email_verified", "created_at"}).
			AddRow(id.String(), "alice", "a@x.com", "hash", false, created))

	a, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "a@x.com", a.Email)
	assert.Equal(t, "hash", a.PasswordHash)
	assert.Equal(t, created, a.CreatedAt)
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE username = \?`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetByUsername_CorruptID(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE username = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "email_verified", "created_at"}).
			AddRow("not-a-uuid", "alice", "a@x.com", "hash", false, time.Now()))

	_, err := repo.GetByUsername(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-uuid")
}

func TestMarkEmailVerified(t *testing.T) {
	repo, mock := newAccountRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_verified = TRUE WHERE email = ? AND email_verified = FALSE")).
		WithArgs("a@x.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.MarkEmailVerified(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
