package domain

import "time"

// Claims is the decoded content of a valid access token.
type Claims struct {
	UserID    string
	Email     string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what the issuer hands out on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    time.Duration
}
