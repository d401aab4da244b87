package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/procurex/procurex/internal/platform/httpx"
	"github.com/procurex/procurex/internal/shared"
)

// Service wraps authentication and account management rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	tokens *shared.TokenStore
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, tokens *shared.TokenStore) *Service {
	return &Service{logger: logger, repo: repo, tokens: tokens}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues an opaque bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	principal := shared.Principal{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		Categories: user.Categories,
	}
	token, err := s.tokens.Issue(ctx, principal)
	if err != nil {
		return "", nil, err
	}
	// Login already succeeded, do not fail the request on bookkeeping.
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("touch last login", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	return token, user, nil
}

// Logout revokes a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Resolve returns the principal attached to a token, if valid.
func (s *Service) Resolve(ctx context.Context, token string) (*shared.Principal, error) {
	return s.tokens.Resolve(ctx, token)
}

// TokenTTL reports how long issued tokens stay valid.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// ChangePassword lets a user replace their own password after proving
// they know the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Username   string
	Email      string
	Password   string
	Role       string
	Categories []string
}

// CreateUser provisions an account. Duplicate username or email
// surfaces as Conflict.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Categories:   in.Categories,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserInput carries the fields an administrator may change.
type UpdateUserInput struct {
	Email      string
	Role       string
	Categories []string
	IsActive   bool
}

// UpdateUser changes account fields other than the password.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Email = in.Email
	user.Role = in.Role
	user.Categories = in.Categories
	user.IsActive = in.IsActive
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
