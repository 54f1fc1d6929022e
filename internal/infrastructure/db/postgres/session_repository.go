package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

const sessionColumns = `id, user_id, refresh_token, user_agent, ip_address, expires_at, is_valid, last_used_at, created_at, updated_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row, false)
}

func (r *SessionRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE refresh_token = $1`, token)
	return scanSession(row, false)
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+sessionColumns,
		s.ID, s.UserID, s.RefreshToken, s.UserAgent, s.IPAddress,
		s.ExpiresAt, s.IsValid, s.LastUsedAt, s.CreatedAt, s.UpdatedAt,
	)
	return scanSession(row, true)
}

func (r *SessionRepository) Update(ctx context.Context, in domain.SessionUpdate) (*domain.Session, error) {
	var (
		expiresAt  sql.NullTime
		isValid    sql.NullBool
		lastUsedAt sql.NullTime
	)
	if in.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *in.ExpiresAt, Valid: true}
	}
	if in.IsValid != nil {
		isValid = sql.NullBool{Bool: *in.IsValid, Valid: true}
	}
	if in.LastUsedAt != nil {
		lastUsedAt = sql.NullTime{Time: *in.LastUsedAt, Valid: true}
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE sessions
		 SET expires_at = COALESCE($2, expires_at),
		     is_valid = COALESCE($3, is_valid),
		     last_used_at = COALESCE($4, last_used_at),
		     updated_at = $5
		 WHERE id = $1
		 RETURNING `+sessionColumns,
		in.ID, expiresAt, isValid, lastUsedAt, time.Now().UTC(),
	)
	return scanSession(row, true)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return execIgnoringBadKey(ctx, r.db, `DELETE FROM sessions WHERE id = $1`, id)
}

func (r *SessionRepository) DeleteAllByUserID(ctx context.Context, userID string) error {
	return execIgnoringBadKey(ctx, r.db, `DELETE FROM sessions WHERE user_id = $1`, userID)
}

func (r *SessionRepository) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// scanSession maps a missing row to (nil, nil), or to ErrSessionNotFound when
// the caller expected a row back from a write.
func scanSession(row scanner, mustExist bool) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.UserAgent, &s.IPAddress,
		&s.ExpiresAt, &s.IsValid, &s.LastUsedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isNoMatch(err) {
			if mustExist {
				return nil, domain.ErrSessionNotFound
			}
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}
