package model

import "time"

// Gender is stored as a MySQL ENUM on usersdata.gender.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether g is one of the stored enumeration values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Profile mirrors a `usersdata` row. Every descriptive field is optional and
// stays nil until an update sets it. The struct doubles as the JSON snapshot
// kept in the profile cache.
type Profile struct {
	ID         string    `json:"id"`
	FirstName  *string   `json:"firstname"`
	LastName   *string   `json:"lastname"`
	Age        *uint8    `json:"age"`
	Gender     *Gender   `json:"gender"`
	Bio        *string   `json:"bio"`
	ProfileURL *string   `json:"profile_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Age bounds accepted by profile updates, inclusive.
const (
	MinAge = 18
	MaxAge = 50
)
