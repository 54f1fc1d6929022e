package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	findErr   error
	createErr error
	creates   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return cloneUser(r.users[id]), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.SafeUser, error) {
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	safe := user.Safe()
	return &safe, nil
}

func (r *stubUserRepo) Update(_ context.Context, in domain.UserUpdate) (*domain.SafeUser, error) {
	u, ok := r.users[in.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	safe := u.Safe()
	return &safe, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

type stubSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*domain.Session
	createErr error
	deleteErr error
	deleted   []string
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session)}
}

func cloneSession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

func (r *stubSessionRepo) FindByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneSession(r.sessions[id]), nil
}

func (r *stubSessionRepo) FindByRefreshToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RefreshToken == token {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r *stubSessionRepo) Create(_ context.Context, session *domain.Session) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.sessions[session.ID] = cloneSession(session)
	return cloneSession(session), nil
}

func (r *stubSessionRepo) Update(_ context.Context, in domain.SessionUpdate) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[in.ID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if in.ExpiresAt != nil {
		s.ExpiresAt = *in.ExpiresAt
	}
	if in.LastUsedAt != nil {
		s.LastUsedAt = *in.LastUsedAt
	}
	if in.IsValid != nil {
		s.IsValid = *in.IsValid
	}
	return cloneSession(s), nil
}

func (r *stubSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, id)
	delete(r.sessions, id)
	return nil
}

func (r *stubSessionRepo) DeleteAllByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *stubSessionRepo) DeleteAllExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *stubSessionRepo) only() *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		return cloneSession(s)
	}
	return nil
}

// stubHasher "hashes" by prefixing, so tests can inspect stored values.
type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (stubHasher) Verify(plain, hash string) bool { return hash == "hashed:"+plain }

type stubGuard struct {
	acquired   bool
	acquireErr error
	onAcquire  func()
	released   int
	releaseErr error
}

func (g *stubGuard) Acquire(context.Context, string) (bool, error) {
	if g.onAcquire != nil {
		g.onAcquire()
	}
	return g.acquired, g.acquireErr
}

func (g *stubGuard) Release(ctx context.Context, _ string) error {
	g.released++
	g.releaseErr = ctx.Err()
	return g.releaseErr
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store down")
