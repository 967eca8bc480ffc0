package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/profile-service/internal/cache"
	"github.com/iliyamo/profile-service/internal/model"
	"github.com/iliyamo/profile-service/internal/queue"
	"github.com/iliyamo/profile-service/internal/repository"
	"github.com/iliyamo/profile-service/internal/utils"
)

// AccountStore is the durable side of registration and login.
type AccountStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a model.Account) error
	GetByUsername(ctx context.Context, username string) (model.Account, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	MarkEmailVerified(ctx context.Context, email string) (int64, error)
}

// RegistrationConfig is the passcode and hashing policy.
type RegistrationConfig struct {
	OTPTTL        time.Duration
	OTPKeyPrefix  string
	BcryptCost    int
	NotifyTimeout time.Duration
}

// Registration runs the two-step signup: BeginRegistration stores a passcode
// and the account, VerifyOTP consumes the passcode and confirms the email.
type Registration struct {
	accounts AccountStore
	cache    cache.Store
	notifier queue.Notifier
	cfg      RegistrationConfig
	log      *slog.Logger

	genOTP   func() (string, error)
	inflight sync.WaitGroup
}

func NewRegistration(accounts AccountStore, store cache.Store, notifier queue.Notifier, cfg RegistrationConfig, log *slog.Logger) *Registration {
	return &Registration{
		accounts: accounts,
		cache:    store,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		genOTP:   utils.GenerateOTP,
	}
}

// BeginRegistration checks the username, stores a fresh OTP under
// otp:<email>, inserts the account and hands the OTP to the notifier.
//
// A failed existence lookup is treated as "does not exist"; the unique key
// on users.username rejects the insert if the name was taken after all.
// The account row exists before the OTP is confirmed; email_verified stays
// false until VerifyOTP succeeds.
func (r *Registration) BeginRegistration(ctx context.Context, username, email, password string) error {
	exists, err := r.accounts.UsernameExists(ctx, username)
	if err != nil {
		r.log.WarnContext(ctx, "username lookup failed, relying on unique key", "username", username, "err", err)
		exists = false
	}
	if exists {
		return Conflict("User Already Exists")
	}

	otp, err := r.storeOTP(ctx, email)
	if err != nil {
		return err
	}

	hash, err := utils.HashPassword(password, r.cfg.BcryptCost)
	if err != nil {
		r.discardOTP(ctx, email)
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return BadRequest(fmt.Sprintf("Password must be at most %d bytes", utils.MaxPasswordBytes))
		}
		return Internal("Failed to hash password", err)
	}

	acct := model.Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := r.accounts.Create(ctx, acct); err != nil {
		r.discardOTP(ctx, email)
		if errors.Is(err, repository.ErrUsernameExists) {
			return &Error{Kind: KindConflict, Message: "User Already Exists", Err: err}
		}
		return Internal("Failed to create user", err)
	}
	r.log.InfoContext(ctx, "account registered", "account_id", acct.ID.String(), "username", username)
	r.notify(email, otp)
	return nil
}

// VerifyOTP succeeds once per issued passcode. A mismatch leaves the stored
// value in place so the user can retry until the TTL runs out.
func (r *Registration) VerifyOTP(ctx context.Context, email, otp string) error {
	key := cache.OTPKey(r.cfg.OTPKeyPrefix, email)
	stored, found, err := r.cache.Get(ctx, key)
	if err != nil {
		return Internal("Failed to read OTP", err)
	}
	if !found {
		return BadRequest("OTP not found or expired")
	}
	if !utils.OTPEqual(stored, otp) {
		return BadRequest("Invalid OTP")
	}

	n, err := r.cache.Delete(ctx, key)
	if err != nil {
		return Internal("Failed to delete OTP", err)
	}
	if n == 0 {
		// expired or consumed between Get and Delete
		return Internal("Failed to delete OTP", nil)
	}

	n, err = r.accounts.MarkEmailVerified(ctx, email)
	if err != nil {
		return Internal("Failed to mark email verified", err)
	}
	if n == 0 {
		r.log.WarnContext(ctx, "otp verified but no unverified account matched", "email", email)
	}
	return nil
}

// ResendOTP replaces the pending passcode for an account whose email is not
// confirmed yet.
func (r *Registration) ResendOTP(ctx context.Context, email string) error {
	acct, err := r.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound("No registration found for this email")
		}
		return Internal("Failed to load account", err)
	}
	if acct.EmailVerified {
		return Conflict("Email already verified")
	}
	otp, err := r.storeOTP(ctx, email)
	if err != nil {
		return err
	}
	r.notify(email, otp)
	return nil
}

// Wait blocks until every pending notification has finished.
func (r *Registration) Wait() { r.inflight.Wait() }

// storeOTP writes a new passcode under otp:<email>, replacing any pending one.
func (r *Registration) storeOTP(ctx context.Context, email string) (string, error) {
	otp, err := r.genOTP()
	if err != nil {
		r.log.ErrorContext(ctx, "otp generation failed", "err", err)
		return "", BadRequest("Failed to generate OTP")
	}
	if err := r.cache.SetWithTTL(ctx, cache.OTPKey(r.cfg.OTPKeyPrefix, email), otp, r.cfg.OTPTTL); err != nil {
		r.log.ErrorContext(ctx, "otp store failed", "email", email, "err", err)
		return "", BadRequest("Failed to generate OTP")
	}
	return otp, nil
}

// discardOTP drops the passcode of a signup that did not produce an account,
// so it cannot be verified later. Failures only leave it to expire.
func (r *Registration) discardOTP(ctx context.Context, email string) {
	if _, err := r.cache.Delete(ctx, cache.OTPKey(r.cfg.OTPKeyPrefix, email)); err != nil {
		r.log.WarnContext(ctx, "otp cleanup failed", "email", email, "err", err)
	}
}

// notify is fire-and-forget. It must not inherit the request context, which
// is cancelled as soon as the response is written.
func (r *Registration) notify(email, otp string) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.NotifyTimeout)
		defer cancel()
		if err := r.notifier.NotifyOTP(ctx, email, otp); err != nil {
			r.log.Error("otp notification failed", "email", email, "err", err)
		}
	}()
}
