// Package auth checks credentials and issues the bearer tokens that guard the
// user management endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// UserFinder looks up accounts by email. It returns domain.ErrNotFound for
// unknown addresses.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

// Service authenticates users.
type Service struct {
	users  UserFinder
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService creates an auth Service.
func NewService(users UserFinder, tokens *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Login checks email and password and issues an access token. Unknown
// emails and wrong passwords both return domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := CheckPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash is unusable", "user_id", user.ID, "error", err)
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if !ok {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	user.PasswordHash = ""
	return LoginResult{AccessToken: token, User: user}, nil
}

// Verify validates a bearer token.
func (s *Service) Verify(token string) (Claims, error) {
	return s.tokens.Verify(token)
}
