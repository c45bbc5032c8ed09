package mock

import (
	"context"

	"github.com/garnizeh/snaglist/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	Users *UserRepo
}

func NewMocks() *Mocks {
	return &Mocks{Users: &UserRepo{}}
}

// UserRepo is an in-memory stand-in holding at most one user, enough for
// handler tests that exercise lookup and credential paths.
type UserRepo struct {
	Stored    *models.User
	CreateErr error
	GetErr    error
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	cp := *u
	cp.ID = 1
	m.Stored = &cp
	return 1, nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *UserRepo) UpdateUser(ctx context.Context, u *models.User) error {
	m.Stored = u
	return nil
}

func (m *UserRepo) DeleteUser(ctx context.Context, id int64) error {
	if m.Stored != nil && m.Stored.ID == id {
		m.Stored = nil
	}
	return nil
}

func (m *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.Stored == nil {
		return nil, nil
	}
	return []models.User{*m.Stored}, nil
}

func (m *UserRepo) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	if m.Stored != nil && m.Stored.Role == role {
		return 1, nil
	}
	return 0, nil
}
