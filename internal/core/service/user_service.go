package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

type userService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

// NewUserService returns a UserService backed by users.
func NewUserService(users ports.UserRepository, log zerolog.Logger) ports.UserService {
	return &userService{users: users, log: log}
}

func (s *userService) Get(ctx context.Context, id string) (*domain.SafeUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	safe := user.Safe()
	return &safe, nil
}

func (s *userService) Update(ctx context.Context, in domain.UserUpdate) (*domain.SafeUser, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, fmt.Errorf("update user: unknown role %q", *in.Role)
	}
	if in.Email != nil {
		other, err := s.users.FindByEmail(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if other != nil && other.ID != in.ID {
			return nil, domain.ErrUserExists
		}
	}

	updated, err := s.users.Update(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.log.Info().Str("user_id", updated.ID).Str("role", string(updated.Role)).Msg("user updated")
	return updated, nil
}

// Delete removes the user. Its sessions go with it.
func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
