package domain

import "time"

// UnknownClient is recorded when the caller did not report a user agent or address.
const UnknownClient = "unknown"

// Session is the server-side record backing one refresh token.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsValid      bool      `json:"is_valid"`
	LastUsedAt   time.Time `json:"last_used_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Usable reports whether the session may still back a refresh at now.
func (s *Session) Usable(now time.Time) bool {
	return s.IsValid && s.ExpiresAt.After(now)
}

// SessionUpdate carries a partial update. Nil fields are left untouched.
type SessionUpdate struct {
	ID         string
	ExpiresAt  *time.Time
	IsValid    *bool
	LastUsedAt *time.Time
}

// ClientInfo describes the client a session is issued to.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Normalized fills blank fields with UnknownClient.
func (c ClientInfo) Normalized() ClientInfo {
	if c.UserAgent == "" {
		c.UserAgent = UnknownClient
	}
	if c.IPAddress == "" {
		c.IPAddress = UnknownClient
	}
	return c
}
