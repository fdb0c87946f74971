// Package models defines core domain types
package models

import "time"

// User represents an authenticated ticket buyer.
//
// Timestamps travel as backend-formatted strings; the client never does
// arithmetic on them, so they are not parsed into time.Time.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Valid reports whether the user carries the fields every consumer
// relies on. A persisted payload failing this check is treated as
// corrupt and purged.
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != "" && u.Name != ""
}

// NewUser creates a user with the creation timestamp set to now.
// Used when the backend returns flat login fields without one.
func NewUser(id, email, name string) *User {
	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
