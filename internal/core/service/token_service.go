package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const (
	refreshSecretSuffix   = "_refresh"
	defaultRefreshExpires = "7d"

	claimUserID = "userId"
	claimEmail  = "email"
	claimRole   = "role"
	claimType   = "type"
)

// reservedClaims are owned by the token service and never surface in Extra.
var reservedClaims = map[string]struct{}{
	claimUserID: {},
	claimEmail:  {},
	claimRole:   {},
	claimType:   {},
	"iat":       {},
	"exp":       {},
	"nbf":       {},
	"jti":       {},
}

// TokenConfig configures the token service.
type TokenConfig struct {
	Secret  string
	Expires string
	// RefreshSecret defaults to Secret + "_refresh".
	RefreshSecret string
	// RefreshExpires defaults to "7d".
	RefreshExpires string
	Mode           ports.TokenMode
	// RequireSession rejects refreshes whose session record is missing.
	RequireSession bool
}

// TokenOption customises a token service at construction time.
type TokenOption func(*tokenService)

// WithSessions persists a session for every issued refresh token.
func WithSessions(repo ports.SessionRepository) TokenOption {
	return func(s *tokenService) { s.sessions = repo }
}

// WithRefreshGuard serialises concurrent refreshes of the same token.
func WithRefreshGuard(guard ports.RefreshGuard) TokenOption {
	return func(s *tokenService) { s.guard = guard }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(s *tokenService) { s.now = now }
}

type tokenService struct {
	secret         []byte
	refreshSecret  []byte
	ttl            time.Duration
	refreshTTL     time.Duration
	mode           ports.TokenMode
	requireSession bool

	sessions ports.SessionRepository
	guard    ports.RefreshGuard
	now      func() time.Time
	log      zerolog.Logger
}

// NewTokenService validates cfg and returns a TokenService. Malformed expiries
// fail construction instead of falling back to DefaultExpiry.
func NewTokenService(cfg TokenConfig, log zerolog.Logger, opts ...TokenOption) (ports.TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service: access secret is required")
	}
	ttl, err := ParseExpiry(cfg.Expires)
	if err != nil {
		return nil, fmt.Errorf("token service: access expiry: %w", err)
	}

	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret + refreshSecretSuffix
	}
	refreshExpires := cfg.RefreshExpires
	if refreshExpires == "" {
		refreshExpires = defaultRefreshExpires
	}
	refreshTTL, err := ParseExpiry(refreshExpires)
	if err != nil {
		return nil, fmt.Errorf("token service: refresh expiry: %w", err)
	}

	s := &tokenService{
		secret:         []byte(cfg.Secret),
		refreshSecret:  []byte(refreshSecret),
		ttl:            ttl,
		refreshTTL:     refreshTTL,
		mode:           cfg.Mode,
		requireSession: cfg.RequireSession,
		now:            time.Now,
		log:            log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *tokenService) Mode() ports.TokenMode {
	return s.mode
}

// GenerateToken signs payload as an access token.
func (s *tokenService) GenerateToken(payload domain.TokenPayload) (*domain.TokenResult, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	token, err := s.sign(payload, domain.TokenKindAccess, s.secret, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &domain.TokenResult{Token: token, ExpiresAt: expiresAt.UnixMilli()}, nil
}

// VerifyToken accepts only access tokens signed with the access secret.
func (s *tokenService) VerifyToken(token string) (*domain.TokenPayload, bool) {
	payload, ok := s.parse(token, s.secret)
	if !ok || payload.Kind == domain.TokenKindRefresh {
		return nil, false
	}
	return payload, true
}

// VerifyRefreshToken accepts only refresh tokens signed with the refresh secret.
func (s *tokenService) VerifyRefreshToken(token string) (*domain.TokenPayload, bool) {
	payload, ok := s.parse(token, s.refreshSecret)
	if !ok || payload.Kind != domain.TokenKindRefresh {
		return nil, false
	}
	return payload, true
}

// GenerateRefreshToken issues an access token plus a refresh token and, when a
// session repository is configured, records the session.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, payload domain.TokenPayload, client domain.ClientInfo) (*domain.RefreshTokenResult, error) {
	if s.mode != ports.TokenModeAccessWithRefresh {
		return nil, domain.ErrRefreshUnsupported
	}

	access, err := s.GenerateToken(payload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.refreshTTL)
	refresh, err := s.sign(domain.TokenPayload{UserID: payload.UserID}, domain.TokenKindRefresh, s.refreshSecret, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if s.sessions != nil {
		client = client.Normalized()
		_, err := s.sessions.Create(ctx, &domain.Session{
			ID:           uuid.NewString(),
			UserID:       payload.UserID,
			RefreshToken: refresh,
			UserAgent:    client.UserAgent,
			IPAddress:    client.IPAddress,
			ExpiresAt:    expiresAt,
			IsValid:      true,
			LastUsedAt:   now,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}

	return &domain.RefreshTokenResult{
		Token:        access.Token,
		ExpiresAt:    access.ExpiresAt,
		RefreshToken: refresh,
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *tokenService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenResult, error) {
	if s.mode != ports.TokenModeAccessWithRefresh {
		return nil, domain.ErrRefreshUnsupported
	}

	payload, ok := s.VerifyRefreshToken(refreshToken)
	if !ok {
		return nil, domain.ErrInvalidRefreshToken
	}

	if s.sessions != nil {
		if err := s.touchSession(ctx, refreshToken); err != nil {
			return nil, err
		}
	}

	return s.GenerateToken(domain.TokenPayload{UserID: payload.UserID})
}

// touchSession slides the session window forward.
func (s *tokenService) touchSession(ctx context.Context, refreshToken string) error {
	if s.guard != nil {
		acquired, err := s.guard.Acquire(ctx, refreshToken)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("refresh guard unavailable, refreshing unguarded")
		case !acquired:
			return domain.ErrRefreshInProgress
		default:
			defer func() {
				// The lock must go even when the caller has gone away.
				if err := s.guard.Release(context.WithoutCancel(ctx), refreshToken); err != nil {
					s.log.Warn().Err(err).Msg("failed to release refresh guard")
				}
			}()
		}
	}

	session, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return s.missingSession()
	}

	now := s.now()
	if !session.Usable(now) {
		return domain.ErrInvalidRefreshToken
	}

	expiresAt := now.Add(s.refreshTTL)
	_, err = s.sessions.Update(ctx, domain.SessionUpdate{
		ID:         session.ID,
		ExpiresAt:  &expiresAt,
		LastUsedAt: &now,
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return s.missingSession()
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *tokenService) missingSession() error {
	if s.requireSession {
		return domain.ErrInvalidRefreshToken
	}
	return nil
}

func (s *tokenService) sign(payload domain.TokenPayload, kind domain.TokenKind, key []byte, issuedAt, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{}
	for k, v := range payload.Extra {
		if _, reserved := reservedClaims[k]; !reserved {
			claims[k] = v
		}
	}
	claims[claimUserID] = payload.UserID
	if payload.Email != "" {
		claims[claimEmail] = payload.Email
	}
	if payload.Role != "" {
		claims[claimRole] = string(payload.Role)
	}
	claims[claimType] = string(kind)
	claims["iat"] = issuedAt.Unix()
	claims["exp"] = expiresAt.Unix()
	claims["jti"] = uuid.NewString()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (s *tokenService) parse(token string, key []byte) (*domain.TokenPayload, bool) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	userID, _ := claims[claimUserID].(string)
	if userID == "" {
		return nil, false
	}

	payload := &domain.TokenPayload{UserID: userID}
	payload.Email, _ = claims[claimEmail].(string)
	if role, ok := claims[claimRole].(string); ok {
		payload.Role = domain.Role(role)
	}
	if kind, ok := claims[claimType].(string); ok {
		payload.Kind = domain.TokenKind(kind)
	}
	for k, v := range claims {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		if payload.Extra == nil {
			payload.Extra = make(map[string]any)
		}
		payload.Extra[k] = v
	}
	return payload, true
}
