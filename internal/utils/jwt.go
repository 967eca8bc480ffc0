package utils // package utils provides helpers for hashing, session tokens and passcodes

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionToken is a signed HS256 JWT together with its expiry.
type SessionToken struct {
	Token string
	Exp   time.Time
}

// InvalidTokenError is returned by Validate for every rejected token. Its
// message is the human-readable cause shown to the client.
type InvalidTokenError struct {
	Cause error
}

func (e *InvalidTokenError) Error() string { return e.Cause.Error() }

func (e *InvalidTokenError) Unwrap() error { return e.Cause }

// SessionTokens issues and validates session JWTs. The subject claim carries
// the account id.
type SessionTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionTokens(secret, issuer string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// TTL is the lifetime applied to both the exp claim and the session cookie.
func (s *SessionTokens) TTL() time.Duration { return s.ttl }

// Issue signs a token for accountID with iat = now and exp = now + ttl.
func (s *SessionTokens) Issue(accountID uuid.UUID) (SessionToken, error) {
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// Validate checks signature, algorithm, issuer and expiry and returns the
// account id from the subject claim.
func (s *SessionTokens) Validate(raw string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, &InvalidTokenError{Cause: err}
	}
	if claims.Subject == "" {
		return uuid.Nil, &InvalidTokenError{Cause: errors.New("missing subject")}
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, &InvalidTokenError{Cause: fmt.Errorf("malformed subject: %w", err)}
	}
	return id, nil
}
