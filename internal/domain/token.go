package domain

import "time"

// RefreshToken is a rotating long-lived credential. Expired or rotated
// tokens are invalidated by moving expires_at into the past, not deleted.
type RefreshToken struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid reports whether the token is still usable at the given instant.
func (t *RefreshToken) Valid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}
