package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/99minutos/auth-system/internal/core/domain"
)

const userColumns = `id, name, email, password, role, created_at, updated_at, deleted_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)
	return scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.SafeUser, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, nullString(user.PasswordHash), string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	safe := user.Safe()
	return &safe, nil
}

func (r *UserRepository) Update(ctx context.Context, in domain.UserUpdate) (*domain.SafeUser, error) {
	var role sql.NullString
	if in.Role != nil {
		role = sql.NullString{String: string(*in.Role), Valid: true}
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name),
		     email = COALESCE($3, email),
		     role = COALESCE($4::user_role, role),
		     updated_at = $5
		 WHERE id = $1 AND deleted_at IS NULL
		 RETURNING id, name, email, role, created_at, updated_at`,
		in.ID, nullStringPtr(in.Name), nullStringPtr(in.Email), role, time.Now().UTC(),
	)

	var (
		u        domain.SafeUser
		roleText string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &roleText, &u.CreatedAt, &u.UpdatedAt); err != nil {
		switch {
		case isNoMatch(err):
			return nil, domain.ErrUserNotFound
		case isUniqueViolation(err):
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.Role = domain.Role(roleText)
	return &u, nil
}

// Delete hard-deletes the user; sessions follow through ON DELETE CASCADE.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return execIgnoringBadKey(ctx, r.db, `DELETE FROM users WHERE id = $1`, id)
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u         domain.User
		password  sql.NullString
		role      string
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &password, &role, &u.CreatedAt, &u.UpdatedAt, &deletedAt)
	if err != nil {
		if isNoMatch(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.PasswordHash = password.String
	u.Role = domain.Role(role)
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
