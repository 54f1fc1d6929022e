package ports

import (
	"context"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// UserRepository persists user accounts.
//
// Find methods return (nil, nil) when no record matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.SafeUser, error)
	// Update returns domain.ErrUserNotFound when id does not exist.
	Update(ctx context.Context, in domain.UserUpdate) (*domain.SafeUser, error)
	// Delete removes the user and all of its sessions.
	Delete(ctx context.Context, id string) error
}

// SessionRepository persists refresh-token sessions.
//
// Find methods return (nil, nil) when no record matches.
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	FindByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
	// Update returns domain.ErrSessionNotFound when id does not exist.
	Update(ctx context.Context, in domain.SessionUpdate) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllByUserID(ctx context.Context, userID string) error
	// DeleteAllExpired removes every session whose expiry is not after now.
	DeleteAllExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger is implemented by stores that can report their connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
