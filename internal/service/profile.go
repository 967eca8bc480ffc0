package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/iliyamo/profile-service/internal/cache"
	"github.com/iliyamo/profile-service/internal/model"
	"github.com/iliyamo/profile-service/internal/repository"
)

// ProfileStore is the durable side of profile reads and writes.
type ProfileStore interface {
	Exists(ctx context.Context, accountID string) (bool, error)
	Insert(ctx context.Context, accountID string) error
	UpdateField(ctx context.Context, accountID string, field repository.ProfileField, value any) error
	Get(ctx context.Context, accountID string) (model.Profile, error)
}

// ProfileUpdate is a partial update. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Age        *int
	Gender     *model.Gender
	Bio        *string
	ProfileURL *string
}

func (u ProfileUpdate) empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Age == nil &&
		u.Gender == nil && u.Bio == nil && u.ProfileURL == nil
}

type ProfileConfig struct {
	CacheTTL  time.Duration
	KeyPrefix string
}

// Profiles serves cache-aside reads and per-field writes. Writes never touch
// the cache, so a cached snapshot wins until its TTL runs out.
type Profiles struct {
	store    ProfileStore
	cache    cache.Store
	cfg      ProfileConfig
	log      *slog.Logger
	sanitize *bluemonday.Policy
}

func NewProfiles(store ProfileStore, c cache.Store, cfg ProfileConfig, log *slog.Logger) *Profiles {
	return &Profiles{store: store, cache: c, cfg: cfg, log: log, sanitize: bluemonday.StrictPolicy()}
}

// GetProfile returns the cached projection when present and decodable,
// otherwise reads the store and repopulates the cache.
func (p *Profiles) GetProfile(ctx context.Context, accountID string) (model.Profile, error) {
	key := cache.ProfileKey(p.cfg.KeyPrefix, accountID)

	raw, found, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.log.WarnContext(ctx, "profile cache read failed", "key", key, "err", err)
	case found:
		var prof model.Profile
		if err := json.Unmarshal([]byte(raw), &prof); err == nil {
			return prof, nil
		}
		p.log.WarnContext(ctx, "discarding undecodable profile cache entry", "key", key)
	}

	prof, err := p.store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, NotFound("Profile not found")
		}
		return model.Profile{}, Internal("Failed to load profile", err)
	}

	b, err := json.Marshal(prof)
	if err != nil {
		p.log.WarnContext(ctx, "profile encode failed", "account_id", accountID, "err", err)
		return prof, nil
	}
	if err := p.cache.SetWithTTL(ctx, key, string(b), p.cfg.CacheTTL); err != nil {
		p.log.WarnContext(ctx, "profile cache write failed", "key", key, "err", err)
	}
	return prof, nil
}

// UpdateProfile applies the present fields in a fixed order, one statement
// each. Writes are not transactional: when a later field is rejected or
// fails, the earlier ones stay committed. The profile row is created right
// before the first write if it does not exist yet.
func (p *Profiles) UpdateProfile(ctx context.Context, accountID string, u ProfileUpdate) error {
	if u.empty() {
		return BadRequest("No fields to update")
	}

	ensured := false
	apply := func(field repository.ProfileField, value any) error {
		if !ensured {
			if err := p.ensureRow(ctx, accountID); err != nil {
				return err
			}
			ensured = true
		}
		if err := p.store.UpdateField(ctx, accountID, field, value); err != nil {
			return Internal(fmt.Sprintf("Failed to update %s", field), err)
		}
		return nil
	}

	if u.FirstName != nil {
		if err := apply(repository.FieldFirstName, *u.FirstName); err != nil {
			return err
		}
	}
	if u.LastName != nil {
		if err := apply(repository.FieldLastName, *u.LastName); err != nil {
			return err
		}
	}
	if u.Age != nil {
		age := *u.Age
		if age < model.MinAge || age > model.MaxAge {
			return BadRequest(fmt.Sprintf("Age must be between %d and %d", model.MinAge, model.MaxAge))
		}
		if err := apply(repository.FieldAge, uint8(age)); err != nil {
			return err
		}
	}
	if u.Gender != nil {
		if !u.Gender.Valid() {
			return BadRequest("Gender must be one of Male, Female, Other")
		}
		if err := apply(repository.FieldGender, string(*u.Gender)); err != nil {
			return err
		}
	}
	if u.Bio != nil {
		if err := apply(repository.FieldBio, p.sanitize.Sanitize(*u.Bio)); err != nil {
			return err
		}
	}
	if u.ProfileURL != nil {
		if err := apply(repository.FieldProfileURL, *u.ProfileURL); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profiles) ensureRow(ctx context.Context, accountID string) error {
	ok, err := p.store.Exists(ctx, accountID)
	if err != nil {
		return Internal("Failed to check profile", err)
	}
	if ok {
		return nil
	}
	if err := p.store.Insert(ctx, accountID); err != nil {
		return Internal("Failed to create profile", err)
	}
	return nil
}
