package domain

import (
	"strings"
	"time"
)

// Session is one live refresh token held inline on a user record.
type Session struct {
	ID       string
	Token    string
	IssuedAt time.Time
}

// User models an identity known to the credential store.
type User struct {
	ID             string
	Name           string
	Surname        string
	Lastname       string
	Email          string
	PasswordDigest string
	Roles          []string
	Groups         []string
	Sessions       []Session
	EmailVerified  bool
	LoggedIn       bool
	LastLogin      time.Time
	LastLogout     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NormalizeEmail lower-cases and trims an email address. Every read and write
// boundary goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SessionByToken returns the session holding the given refresh token.
func (u *User) SessionByToken(token string) (Session, bool) {
	for _, s := range u.Sessions {
		if s.Token == token {
			return s, true
		}
	}
	return Session{}, false
}

// UserUpdate carries the mutable profile fields. Nil means unchanged.
type UserUpdate struct {
	Name          *string
	Surname       *string
	Lastname      *string
	EmailVerified *bool
}

// UserView is the public projection of a User: no digest, no tokens.
type UserView struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Surname       string   `json:"surname"`
	Lastname      string   `json:"lastname"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	Groups        []string `json:"groups"`
	EmailVerified bool     `json:"email_verified"`
	LoggedIn      bool     `json:"logged_in"`
	LastLogin     int64    `json:"last_login,omitempty"`
	LastLogout    int64    `json:"last_logout,omitempty"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
}

// View projects the user for responses.
func (u *User) View() UserView {
	return UserView{
		ID:            u.ID,
		Name:          u.Name,
		Surname:       u.Surname,
		Lastname:      u.Lastname,
		Email:         u.Email,
		Roles:         nonNil(u.Roles),
		Groups:        nonNil(u.Groups),
		EmailVerified: u.EmailVerified,
		LoggedIn:      u.LoggedIn,
		LastLogin:     Millis(u.LastLogin),
		LastLogout:    Millis(u.LastLogout),
		CreatedAt:     Millis(u.CreatedAt),
		UpdatedAt:     Millis(u.UpdatedAt),
	}
}

// Millis converts t to epoch milliseconds, keeping the zero time at 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of Millis.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
