package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/iliyamo/profile-service/internal/utils"
)

// LoginResult is handed back to the handler: the token goes in the body,
// the cookie in Set-Cookie.
type LoginResult struct {
	AccountID uuid.UUID
	Token     string
	Cookie    *http.Cookie
}

type Login struct {
	accounts     AccountStore
	tokens       *utils.SessionTokens
	cookieSecure bool
}

func NewLogin(accounts AccountStore, tokens *utils.SessionTokens, cookieSecure bool) *Login {
	return &Login{accounts: accounts, tokens: tokens, cookieSecure: cookieSecure}
}

// Login verifies the credentials and issues a session.
func (l *Login) Login(ctx context.Context, username, password string) (LoginResult, error) {
	acct, err := l.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// lookup error surfaces verbatim
			return LoginResult{}, &Error{Kind: KindNotFound, Message: err.Error(), Err: err}
		}
		return LoginResult{}, Internal("Failed to load user", err)
	}
	if !utils.VerifyPassword(acct.PasswordHash, password) {
		return LoginResult{}, BadRequest("Password Not Matched")
	}

	tok, err := l.tokens.Issue(acct.ID)
	if err != nil {
		return LoginResult{}, Internal("Failed to issue token", err)
	}
	return LoginResult{
		AccountID: acct.ID,
		Token:     tok.Token,
		Cookie:    utils.SessionCookie(tok.Token, l.tokens.TTL(), l.cookieSecure),
	}, nil
}

// LogoutCookie is the expired cookie that ends a browser session. The token
// itself stays valid until exp.
func (l *Login) LogoutCookie() *http.Cookie {
	return utils.ClearSessionCookie(l.cookieSecure)
}
