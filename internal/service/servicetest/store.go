// Package servicetest provides an in-memory UserStore for tests that do not
// need Postgres.
package servicetest

import (
	"context"
	"sort"
	"sync"

	"github.com/deppfellow/userstore/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
)

// MemoryStore mimics the users table: sequential IDs and a unique email
// index. Set Err to make every call fail with it.
type MemoryStore struct {
	mu     sync.Mutex
	users  map[int64]model.User
	nextID int64

	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[int64]model.User), nextID: 1}
}

// duplicateEmail is what Postgres reports for a second row with the same email.
func duplicateEmail() error {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		TableName:      "users",
		ConstraintName: "users_email_key",
	}
}

func (s *MemoryStore) Create(ctx context.Context, user model.NewUser) (*model.User, error) {
	created, err := s.CreateMany(ctx, []model.NewUser{user})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// CreateMany is all or nothing, like a single INSERT statement.
func (s *MemoryStore) CreateMany(_ context.Context, users []model.NewUser) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if seen[u.Email] || s.emailTaken(u.Email, 0) {
			return nil, duplicateEmail()
		}
		seen[u.Email] = true
	}

	created := make([]model.User, 0, len(users))
	for _, u := range users {
		row := model.User{ID: s.nextID, Name: u.Name, Age: u.Age, Email: u.Email}
		s.users[row.ID] = row
		s.nextID++
		created = append(created, row)
	}
	return created, nil
}

func (s *MemoryStore) FindAll(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Update(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if patch.Email != nil && s.emailTaken(*patch.Email, id) {
		return nil, duplicateEmail()
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Age != nil {
		u.Age = *patch.Age
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	s.users[id] = u
	return &u, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	delete(s.users, id)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return false, s.Err
	}

	_, ok := s.users[id]
	return ok, nil
}

func (s *MemoryStore) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
