// Package servicetest provides in-memory stores for exercising the service
// flows without MySQL.
package servicetest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/iliyamo/profile-service/internal/model"
	"github.com/iliyamo/profile-service/internal/repository"
)

// MemoryAccounts is an AccountStore with a unique username index. Setting
// ExistsErr or CreateErr injects failures.
type MemoryAccounts struct {
	mu        sync.Mutex
	ByName    map[string]model.Account
	ExistsErr error
	CreateErr error
	creates   int
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{ByName: map[string]model.Account{}}
}

// Creates is the number of Create calls, successful or not.
func (m *MemoryAccounts) Creates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates
}

func (m *MemoryAccounts) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	_, ok := m.ByName[username]
	return ok, nil
}

func (m *MemoryAccounts) Create(_ context.Context, a model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.ByName[a.Username]; ok {
		return repository.ErrUsernameExists
	}
	a.CreatedAt = time.Now().UTC()
	m.ByName[a.Username] = a
	return nil
}

func (m *MemoryAccounts) GetByUsername(_ context.Context, username string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ByName[username]
	if !ok {
		return model.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (m *MemoryAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *model.Account
	for _, a := range m.ByName {
		if a.Email != email {
			continue
		}
		if found == nil || a.CreatedAt.After(found.CreatedAt) {
			a := a
			found = &a
		}
	}
	if found == nil {
		return model.Account{}, sql.ErrNoRows
	}
	return *found, nil
}

func (m *MemoryAccounts) MarkEmailVerified(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, a := range m.ByName {
		if a.Email == email && !a.EmailVerified {
			a.EmailVerified = true
			m.ByName[k] = a
			n++
		}
	}
	return n, nil
}

// MemoryProfiles is a ProfileStore that records the name of every call in
// Calls. An UpdateField on a missing row changes nothing, like the SQL
// statement it stands in for.
type MemoryProfiles struct {
	mu        sync.Mutex
	Rows      map[string]model.Profile
	Calls     []string
	UpdateErr error
	GetErr    error
}

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{Rows: map[string]model.Profile{}}
}

func (m *MemoryProfiles) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "exists")
	_, ok := m.Rows[id]
	return ok, nil
}

func (m *MemoryProfiles) Insert(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "insert")
	if _, ok := m.Rows[id]; !ok {
		now := time.Now().UTC().Truncate(time.Second)
		m.Rows[id] = model.Profile{ID: id, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}

func (m *MemoryProfiles) UpdateField(_ context.Context, id string, field repository.ProfileField, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, field.String())
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	p, ok := m.Rows[id]
	if !ok {
		return nil
	}
	switch field {
	case repository.FieldFirstName:
		s := value.(string)
		p.FirstName = &s
	case repository.FieldLastName:
		s := value.(string)
		p.LastName = &s
	case repository.FieldAge:
		a := value.(uint8)
		p.Age = &a
	case repository.FieldGender:
		g := model.Gender(value.(string))
		p.Gender = &g
	case repository.FieldBio:
		s := value.(string)
		p.Bio = &s
	case repository.FieldProfileURL:
		s := value.(string)
		p.ProfileURL = &s
	}
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	m.Rows[id] = p
	return nil
}

func (m *MemoryProfiles) Get(_ context.Context, id string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return model.Profile{}, m.GetErr
	}
	p, ok := m.Rows[id]
	if !ok {
		return model.Profile{}, sql.ErrNoRows
	}
	return p, nil
}
