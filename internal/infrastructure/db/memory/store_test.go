package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/auth-system/internal/core/domain"
)

func seed(t *testing.T, s *Store, id, email string) {
	t.Helper()
	_, err := s.Users().Create(context.Background(), &domain.User{ID: id, Email: email, Name: id, Role: domain.RoleUser})
	require.NoError(t, err)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "u1", "a@test.com")

	byID, err := s.Users().FindByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "a@test.com", byID.Email)

	byEmail, err := s.Users().FindByEmail(ctx, "a@test.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "u1", byEmail.ID)

	missing, err := s.Users().FindByEmail(ctx, "nobody@test.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = s.Users().Create(ctx, &domain.User{ID: "u2", Email: "a@test.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUserRepository_Update(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "u1", "a@test.com")
	seed(t, s, "u2", "b@test.com")

	role := domain.RoleAdmin
	updated, err := s.Users().Update(ctx, domain.UserUpdate{ID: "u1", Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	taken := "b@test.com"
	_, err = s.Users().Update(ctx, domain.UserUpdate{ID: "u1", Email: &taken})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	_, err = s.Users().Update(ctx, domain.UserUpdate{ID: "ghost", Role: &role})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DeleteCascadesSessions(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "u1", "a@test.com")
	seed(t, s, "u2", "b@test.com")

	_, err := s.Sessions().Create(ctx, &domain.Session{ID: "s1", UserID: "u1", RefreshToken: "t1", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = s.Sessions().Create(ctx, &domain.Session{ID: "s2", UserID: "u2", RefreshToken: "t2", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	require.NoError(t, s.Users().Delete(ctx, "u1"))
	require.NoError(t, s.Users().Delete(ctx, "u1"))

	gone, _ := s.Sessions().FindByID(ctx, "s1")
	assert.Nil(t, gone)
	kept, _ := s.Sessions().FindByID(ctx, "s2")
	assert.NotNil(t, kept)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "u1", "a@test.com")
	now := time.Now().UTC()

	_, err := s.Sessions().Create(ctx, &domain.Session{ID: "s1", UserID: "u1", RefreshToken: "t1", ExpiresAt: now.Add(time.Hour), IsValid: true})
	require.NoError(t, err)

	_, err = s.Sessions().Create(ctx, &domain.Session{ID: "s2", UserID: "u1", RefreshToken: "t1"})
	assert.Error(t, err, "refresh tokens are unique")

	_, err = s.Sessions().Create(ctx, &domain.Session{ID: "s3", UserID: "ghost", RefreshToken: "t3"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	found, err := s.Sessions().FindByRefreshToken(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "s1", found.ID)

	later := now.Add(2 * time.Hour)
	updated, err := s.Sessions().Update(ctx, domain.SessionUpdate{ID: "s1", ExpiresAt: &later, LastUsedAt: &now})
	require.NoError(t, err)
	assert.True(t, updated.ExpiresAt.Equal(later))

	_, err = s.Sessions().Update(ctx, domain.SessionUpdate{ID: "nope", ExpiresAt: &later})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, s.Sessions().Delete(ctx, "s1"))
	require.NoError(t, s.Sessions().Delete(ctx, "s1"))
	gone, _ := s.Sessions().FindByRefreshToken(ctx, "t1")
	assert.Nil(t, gone)
}

func TestSessionRepository_DeleteAllExpired(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "u1", "a@test.com")
	now := time.Now().UTC()

	for i, exp := range []time.Time{now.Add(-time.Minute), now, now.Add(time.Minute)} {
		id := string(rune('a' + i))
		_, err := s.Sessions().Create(ctx, &domain.Session{ID: id, UserID: "u1", RefreshToken: id, ExpiresAt: exp})
		require.NoError(t, err)
	}

	n, err := s.Sessions().DeleteAllExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, _ := s.Sessions().FindByID(ctx, "c")
	assert.NotNil(t, left)
}

func TestSessionRepository_DeleteAllByUserID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed(t, s, "u1", "a@test.com")

	for _, id := range []string{"s1", "s2"} {
		_, err := s.Sessions().Create(ctx, &domain.Session{ID: id, UserID: "u1", RefreshToken: id})
		require.NoError(t, err)
	}
	require.NoError(t, s.Sessions().DeleteAllByUserID(ctx, "u1"))

	for _, id := range []string{"s1", "s2"} {
		got, _ := s.Sessions().FindByID(ctx, id)
		assert.Nil(t, got)
	}
}
