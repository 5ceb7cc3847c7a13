package models

import "time"

// Session is an authenticated browser session. It carries the LifeLine
// bearer token plus the user identity returned by the OAuth exchange.
type Session struct {
	ID        string
	UserID    string
	UserEmail string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired at now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
