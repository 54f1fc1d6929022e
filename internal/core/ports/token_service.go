package ports

import (
	"context"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// TokenMode is the capability a TokenService was built with.
type TokenMode int

const (
	TokenModeAccessOnly TokenMode = iota
	TokenModeAccessWithRefresh
)

func (m TokenMode) String() string {
	switch m {
	case TokenModeAccessWithRefresh:
		return "access_with_refresh"
	default:
		return "access_only"
	}
}

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	// VerifyToken returns the payload and true for a valid access token.
	// Any failure yields (nil, false).
	VerifyToken(token string) (*domain.TokenPayload, bool)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	TokenVerifier
	Mode() TokenMode
	GenerateToken(payload domain.TokenPayload) (*domain.TokenResult, error)
	GenerateRefreshToken(ctx context.Context, payload domain.TokenPayload, client domain.ClientInfo) (*domain.RefreshTokenResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error)
	// VerifyRefreshToken checks signature, expiry and kind without touching sessions.
	VerifyRefreshToken(refreshToken string) (*domain.TokenPayload, bool)
}

// RefreshGuard serialises concurrent refreshes of the same token.
type RefreshGuard interface {
	Acquire(ctx context.Context, refreshToken string) (bool, error)
	Release(ctx context.Context, refreshToken string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
