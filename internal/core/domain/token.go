package domain

// TokenKind discriminates access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenPayload is the decoded content of a signed token.
//
// Extra holds custom claims. They travel as JSON, so on verification numbers
// come back as float64, arrays as []any and objects as map[string]any.
type TokenPayload struct {
	UserID string         `json:"userId"`
	Email  string         `json:"email,omitempty"`
	Role   Role           `json:"role,omitempty"`
	Kind   TokenKind      `json:"type,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// TokenResult is a signed access token. ExpiresAt is a unix timestamp in milliseconds.
type TokenResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// RefreshTokenResult is an access token issued together with a refresh token.
type RefreshTokenResult struct {
	Token        string `json:"token"`
	ExpiresAt    int64  `json:"expiresAt"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by sign-in and sign-up.
type AuthResult struct {
	User         SafeUser `json:"user"`
	Token        string   `json:"token"`
	ExpiresAt    int64    `json:"expiresAt"`
	RefreshToken string   `json:"refreshToken,omitempty"`
}
