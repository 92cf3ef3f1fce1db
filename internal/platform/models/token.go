package models

// PersonalAccessToken is the persisted PAT row. Only the SHA-256 hash and the
// display prefix of the secret are stored; the plaintext is returned to the
// caller once at creation and is unrecoverable afterwards.
type PersonalAccessToken struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	TokenHash   string   `json:"-"`
	TokenPrefix string   `json:"token_prefix"`
	Scopes      []string `json:"scopes"` // JSON array in DB
	ExpiresAt   *int64   `json:"expires_at,omitempty"`
	LastUsedAt  *int64   `json:"last_used_at,omitempty"`
	Revoked     bool     `json:"revoked"`
	CreatedAt   int64    `json:"created_at"`
}

// Expired reports whether the token's absolute expiry has passed.
// A nil ExpiresAt means the token never expires.
func (t *PersonalAccessToken) Expired(now int64) bool {
	return t.ExpiresAt != nil && *t.ExpiresAt < now
}
