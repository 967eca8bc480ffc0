package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/profile-service/internal/model"
	"github.com/iliyamo/profile-service/internal/utils"
)

const loginSecret = "0123456789abcdef0123456789abcdef"

func newTestLogin(t *testing.T) (*Login, *fakeAccounts, uuid.UUID) {
	t.Helper()
	hash, err := utils.HashPassword("pw1", bcrypt.MinCost)
	require.NoError(t, err)
	id := uuid.New()
	accounts := newFakeAccounts()
	accounts.ByName["alice"] = model.Account{ID: id, Username: "alice", Email: "a@x.com", PasswordHash: hash}
	tokens := utils.NewSessionTokens(loginSecret, "profile-service", 24*time.Hour)
	return NewLogin(accounts, tokens, true), accounts, id
}

func TestLogin_Success(t *testing.T) {
	l, _, id := newTestLogin(t)

	res, err := l.Login(context.Background(), "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, id, res.AccountID)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.Cookie)
	assert.Equal(t, "auth_token", res.Cookie.Name)
	assert.Equal(t, res.Token, res.Cookie.Value)
	assert.Equal(t, 86400, res.Cookie.MaxAge)
	assert.True(t, res.Cookie.HttpOnly)
	assert.True(t, res.Cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, res.Cookie.SameSite)

	got, err := utils.NewSessionTokens(loginSecret, "profile-service", 24*time.Hour).Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestLogin_WrongPassword(t *testing.T) {
	l, _, _ := newTestLogin(t)

	res, err := l.Login(context.Background(), "alice", "wrongpw")
	requireKind(t, err, KindBadRequest, "Password Not Matched")
	assert.Empty(t, res.Token)
	assert.Nil(t, res.Cookie)
}

func TestLogin_UnknownUserSurfacesLookupError(t *testing.T) {
	l, _, _ := newTestLogin(t)

	_, err := l.Login(context.Background(), "ghost", "pw1")
	requireKind(t, err, KindNotFound, "sql: no rows in result set")
}

// failingAccounts fails every lookup with a transport error.
type failingAccounts struct{ *fakeAccounts }

func (failingAccounts) GetByUsername(context.Context, string) (model.Account, error) {
	return model.Account{}, errors.New("i/o timeout")
}

func TestLogin_LookupErrorIsInternal(t *testing.T) {
	tokens := utils.NewSessionTokens(loginSecret, "profile-service", time.Hour)
	l := NewLogin(failingAccounts{newFakeAccounts()}, tokens, true)

	_, err := l.Login(context.Background(), "alice", "pw1")
	requireKind(t, err, KindInternal, "Failed to load user: i/o timeout")
}

func TestLogoutCookie(t *testing.T) {
	l, _, _ := newTestLogin(t)

	c := l.LogoutCookie()
	assert.Equal(t, "auth_token", c.Name)
	assert.Equal(t, -1, c.MaxAge)
}
