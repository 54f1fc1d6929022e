package ports

import (
	"context"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// AuthService orchestrates the credential-to-token flow.
type AuthService interface {
	SignInWithEmailAndPassword(ctx context.Context, email, password string, client domain.ClientInfo) (*domain.AuthResult, error)
	SignUpWithEmailAndPassword(ctx context.Context, email, password, name string, client domain.ClientInfo) (*domain.AuthResult, error)
	ValidateToken(token string) (*domain.TokenPayload, bool)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error)
	SignOut(ctx context.Context, sessionID string) error
	SignOutRefreshToken(ctx context.Context, refreshToken string) error
	SignOutAll(ctx context.Context, userID string) error
	CurrentUser(ctx context.Context, id string) (*domain.SafeUser, error)
	HasRole(user *domain.User, required domain.Role) bool
}

// UserService administers accounts.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.SafeUser, error)
	Update(ctx context.Context, in domain.UserUpdate) (*domain.SafeUser, error)
	Delete(ctx context.Context, id string) error
}
