// Package memory provides process-local user and session repositories.
// Data is lost on restart; use it for local runs and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

var errDuplicateRefreshToken = errors.New("memory: refresh token already stored")

// Store holds users and sessions behind one lock so that deleting a user can
// cascade to its sessions atomically.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	sessions map[string]*domain.Session
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		sessions: make(map[string]*domain.Session),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{store: s}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u := r.byEmail(email); u != nil {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.SafeUser, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.byEmail(user.Email) != nil {
		return nil, domain.ErrUserExists
	}
	clone := *user
	r.store.users[user.ID] = &clone
	safe := clone.Safe()
	return &safe, nil
}

func (r *UserRepository) Update(_ context.Context, in domain.UserUpdate) (*domain.SafeUser, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[in.ID]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrUserNotFound
	}
	if in.Email != nil && *in.Email != u.Email {
		if r.byEmail(*in.Email) != nil {
			return nil, domain.ErrUserExists
		}
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	u.UpdatedAt = time.Now().UTC()
	safe := u.Safe()
	return &safe, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.users, id)
	for sid, sess := range r.store.sessions {
		if sess.UserID == id {
			delete(r.store.sessions, sid)
		}
	}
	return nil
}

// byEmail must be called with the lock held.
func (r *UserRepository) byEmail(email string) *domain.User {
	for _, u := range r.store.users {
		if u.Email == email && u.DeletedAt == nil {
			return u
		}
	}
	return nil
}

type SessionRepository struct {
	store *Store
}

func (r *SessionRepository) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if s, ok := r.store.sessions[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, nil
}

func (r *SessionRepository) FindByRefreshToken(_ context.Context, token string) (*domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, s := range r.store.sessions {
		if s.RefreshToken == token {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *SessionRepository) Create(_ context.Context, session *domain.Session) (*domain.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[session.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for _, s := range r.store.sessions {
		if s.RefreshToken == session.RefreshToken {
			return nil, errDuplicateRefreshToken
		}
	}
	clone := *session
	r.store.sessions[session.ID] = &clone
	out := clone
	return &out, nil
}

func (r *SessionRepository) Update(_ context.Context, in domain.SessionUpdate) (*domain.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.sessions[in.ID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if in.ExpiresAt != nil {
		s.ExpiresAt = *in.ExpiresAt
	}
	if in.IsValid != nil {
		s.IsValid = *in.IsValid
	}
	if in.LastUsedAt != nil {
		s.LastUsedAt = *in.LastUsedAt
	}
	s.UpdatedAt = time.Now().UTC()
	out := *s
	return &out, nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.sessions, id)
	return nil
}

func (r *SessionRepository) DeleteAllByUserID(_ context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, s := range r.store.sessions {
		if s.UserID == userID {
			delete(r.store.sessions, id)
		}
	}
	return nil
}

func (r *SessionRepository) DeleteAllExpired(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var n int64
	for id, s := range r.store.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.store.sessions, id)
			n++
		}
	}
	return n, nil
}
