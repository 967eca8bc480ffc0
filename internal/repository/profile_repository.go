package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/profile-service/internal/model"
)

// ProfileField names one updatable column of `usersdata`.
type ProfileField int

const (
	FieldFirstName ProfileField = iota
	FieldLastName
	FieldAge
	FieldGender
	FieldBio
	FieldProfileURL
)

func (f ProfileField) String() string {
	switch f {
	case FieldFirstName:
		return "firstname"
	case FieldLastName:
		return "lastname"
	case FieldAge:
		return "age"
	case FieldGender:
		return "gender"
	case FieldBio:
		return "bio"
	case FieldProfileURL:
		return "profile_url"
	}
	return fmt.Sprintf("ProfileField(%d)", int(f))
}

// profileUpdates is the closed set of single-column statements. Values only
// ever travel as bind parameters.
var profileUpdates = map[ProfileField]string{
	FieldFirstName:  "UPDATE usersdata SET firstname = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
	FieldLastName:   "UPDATE usersdata SET lastname = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
	FieldAge:        "UPDATE usersdata SET age = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
	FieldGender:     "UPDATE usersdata SET gender = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
	FieldBio:        "UPDATE usersdata SET bio = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
	FieldProfileURL: "UPDATE usersdata SET profile_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
}

// ProfileRepo persists per-account profile rows in `usersdata`.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Exists reports whether the account already has a profile row.
func (r *ProfileRepo) Exists(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM usersdata WHERE id = ?)",
		accountID).Scan(&exists)
	return exists, err
}

// Insert creates an empty profile row (all optional columns NULL). A row
// created concurrently by another request counts as success.
func (r *ProfileRepo) Insert(ctx context.Context, accountID string) error {
	_, err := r.DB.ExecContext(ctx, "INSERT INTO usersdata (id) VALUES (?)", accountID)
	if err != nil && !isDuplicateKey(err) {
		return err
	}
	return nil
}

// UpdateField writes a single column and bumps updated_at.
func (r *ProfileRepo) UpdateField(ctx context.Context, accountID string, field ProfileField, value any) error {
	q, ok := profileUpdates[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	_, err := r.DB.ExecContext(ctx, q, value, accountID)
	return err
}

// Get loads the profile row. sql.ErrNoRows is returned unchanged.
func (r *ProfileRepo) Get(ctx context.Context, accountID string) (model.Profile, error) {
	var p model.Profile
	var first, last, gender, bio, pictureURL sql.NullString
	var age sql.NullInt16
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, firstname, lastname, age, gender, bio, profile_url, created_at, updated_at FROM usersdata WHERE id = ? LIMIT 1",
		accountID).Scan(&p.ID, &first, &last, &age, &gender, &bio, &pictureURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Profile{}, err
	}
	p.FirstName = nullString(first)
	p.LastName = nullString(last)
	p.Bio = nullString(bio)
	p.ProfileURL = nullString(pictureURL)
	if age.Valid {
		a := uint8(age.Int16)
		p.Age = &a
	}
	if gender.Valid {
		g := model.Gender(gender.String)
		p.Gender = &g
	}
	return p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
