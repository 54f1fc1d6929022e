package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

type authService struct {
	users          ports.UserRepository
	sessions       ports.SessionRepository
	tokens         ports.TokenService
	hasher         ports.PasswordHasher
	refreshEnabled bool
	log            zerolog.Logger
}

// NewAuthService returns an AuthService. Refresh support is read from the
// token service once, here.
func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) ports.AuthService {
	return &authService{
		users:          users,
		sessions:       sessions,
		tokens:         tokens,
		hasher:         hasher,
		refreshEnabled: tokens.Mode() == ports.TokenModeAccessWithRefresh,
		log:            log,
	}
}

// SignInWithEmailAndPassword returns the same error for an unknown email, an
// account without a password and a wrong password.
func (s *authService) SignInWithEmailAndPassword(ctx context.Context, email, password string, client domain.ClientInfo) (*domain.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if user == nil || !user.HasPassword() {
		s.log.Info().Msg("sign in rejected")
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Info().Str("user_id", user.ID).Msg("sign in rejected")
		return nil, domain.ErrInvalidCredentials
	}

	payload := domain.TokenPayload{UserID: user.ID, Email: user.Email, Role: user.Role}
	result := &domain.AuthResult{User: user.Safe()}

	if s.refreshEnabled {
		issued, err := s.tokens.GenerateRefreshToken(ctx, payload, client)
		if err != nil {
			return nil, fmt.Errorf("sign in: %w", err)
		}
		result.Token, result.ExpiresAt, result.RefreshToken = issued.Token, issued.ExpiresAt, issued.RefreshToken
	} else {
		issued, err := s.tokens.GenerateToken(payload)
		if err != nil {
			return nil, fmt.Errorf("sign in: %w", err)
		}
		result.Token, result.ExpiresAt = issued.Token, issued.ExpiresAt
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed in")
	return result, nil
}

// SignUpWithEmailAndPassword creates a user with role "user" and signs it in.
// An empty name is derived from the local part of the email.
func (s *authService) SignUpWithEmailAndPassword(ctx context.Context, email, password, name string, client domain.ClientInfo) (*domain.AuthResult, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}

	if name == "" {
		name = nameFromEmail(email)
	}
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("sign up: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user signed up")
	return s.SignInWithEmailAndPassword(ctx, email, password, client)
}

func (s *authService) ValidateToken(token string) (*domain.TokenPayload, bool) {
	return s.tokens.VerifyToken(token)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error) {
	if !s.refreshEnabled {
		return nil, domain.ErrRefreshUnsupported
	}
	return s.tokens.RefreshToken(ctx, refreshToken)
}

// SignOut deletes the session. Deleting an absent session succeeds.
func (s *authService) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.log.Info().Str("session_id", sessionID).Msg("session signed out")
	return nil
}

// SignOutRefreshToken signs out the session backing refreshToken, if any.
func (s *authService) SignOutRefreshToken(ctx context.Context, refreshToken string) error {
	session, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if session == nil {
		return nil
	}
	return s.SignOut(ctx, session.ID)
}

func (s *authService) SignOutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("sign out all: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("all sessions signed out")
	return nil
}

func (s *authService) CurrentUser(ctx context.Context, id string) (*domain.SafeUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	safe := user.Safe()
	return &safe, nil
}

func (s *authService) HasRole(user *domain.User, required domain.Role) bool {
	if user == nil {
		return false
	}
	return user.Role.Satisfies(required)
}

func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
