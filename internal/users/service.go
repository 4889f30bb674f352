// Package users manages dashboard accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-insights-service/internal/auth"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// UserRepository persists accounts. Lookups return domain.ErrNotFound for
// missing records and InsertUser returns domain.ErrConflict for a taken email.
type UserRepository interface {
	InsertUser(ctx context.Context, user domain.User) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AdminSeed describes the account created on first start.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// Service implements account management on top of a UserRepository.
type Service struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewService creates a users Service.
func NewService(repo UserRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates in, hashes the password, and stores a new account. The
// role defaults to domain.RoleUser. The returned user carries no hash.
func (s *Service) Create(ctx context.Context, in domain.UserInput) (domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.Validate(in); err != nil {
		return domain.User{}, err
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, fmt.Errorf("%w: email %s", domain.ErrConflict, in.Email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := domain.Now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The unique index still guards against a concurrent insert.
	if err := s.repo.InsertUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return sanitize(user), nil
}

// List returns every account without password hashes.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i] = sanitize(users[i])
	}
	return users, nil
}

// Get returns the account with id, or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (domain.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return sanitize(user), nil
}

// Delete removes the account with id, or returns domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// FindByEmail returns the full account, hash included, for credential checks.
func (s *Service) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// EnsureDefaultAdmin creates the seed admin account unless an account with
// its email already exists.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, seed AdminSeed) error {
	email := normalizeEmail(seed.Email)
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		s.logger.Info("admin user already exists", "email", email)
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("check admin user: %w", err)
	}

	_, err = s.Create(ctx, domain.UserInput{
		Email:    email,
		Password: seed.Password,
		Name:     seed.Name,
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	s.logger.Info("default admin user created", "email", email)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func sanitize(u domain.User) domain.User {
	u.PasswordHash = ""
	return u
}
