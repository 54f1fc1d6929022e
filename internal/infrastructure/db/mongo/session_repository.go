package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-system/internal/core/domain"
)

type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection(sessionsCollection)}
}

type sessionDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	RefreshToken string    `bson:"refresh_token"`
	UserAgent    string    `bson:"user_agent"`
	IPAddress    string    `bson:"ip_address"`
	ExpiresAt    time.Time `bson:"expires_at"`
	IsValid      bool      `bson:"is_valid"`
	LastUsedAt   time.Time `bson:"last_used_at"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func newSessionDoc(s *domain.Session) sessionDoc {
	return sessionDoc{
		ID:           s.ID,
		UserID:       s.UserID,
		RefreshToken: s.RefreshToken,
		UserAgent:    s.UserAgent,
		IPAddress:    s.IPAddress,
		ExpiresAt:    s.ExpiresAt,
		IsValid:      s.IsValid,
		LastUsedAt:   s.LastUsedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (d *sessionDoc) toDomain() *domain.Session {
	return &domain.Session{
		ID:           d.ID,
		UserID:       d.UserID,
		RefreshToken: d.RefreshToken,
		UserAgent:    d.UserAgent,
		IPAddress:    d.IPAddress,
		ExpiresAt:    d.ExpiresAt.UTC(),
		IsValid:      d.IsValid,
		LastUsedAt:   d.LastUsedAt.UTC(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *SessionRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.findOne(ctx, bson.M{"refresh_token": token})
}

func (r *SessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Session, error) {
	var doc sessionDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	doc := newSessionDoc(s)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SessionRepository) Update(ctx context.Context, in domain.SessionUpdate) (*domain.Session, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.ExpiresAt != nil {
		set["expires_at"] = *in.ExpiresAt
	}
	if in.IsValid != nil {
		set["is_valid"] = *in.IsValid
	}
	if in.LastUsedAt != nil {
		set["last_used_at"] = *in.LastUsedAt
	}

	var doc sessionDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": in.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("update session: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteAllByUserID(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.DeletedCount, nil
}
