// Package models defines the identity, profile, session and dose records
// shared by both backends and the session store.
package models

import "time"

// User is the immutable identity record. Email is stored normalized.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredUser is the local backend's persisted user record.
type StoredUser struct {
	User
	PasswordHash string `json:"password_hash"`
}

// AuthUser is the denormalized user+profile projection held by the session store.
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Projection builds the session projection from a user and its profile.
// The profile name wins when present.
func Projection(u *User, p *Profile) *AuthUser {
	if u == nil {
		return nil
	}
	au := &AuthUser{ID: u.ID, Name: u.Name, Email: u.Email}
	if p != nil && p.Name != "" {
		au.Name = p.Name
	}
	return au
}
