package models

import "time"

// Profile is mutable display metadata, one-to-one with a User.
type Profile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial profile mutation; nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string
	AvatarURL *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.AvatarURL == nil
}

// Apply merges u into p and advances UpdatedAt. UpdatedAt always moves
// forward, even when now is not after the previous value.
func (p *Profile) Apply(u ProfileUpdate, now time.Time) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.AvatarURL != nil {
		url := *u.AvatarURL
		p.AvatarURL = &url
	}
	p.UpdatedAt = NextUpdatedAt(p.UpdatedAt, now)
}

// NextUpdatedAt returns now, or prev+1ms when the clock has not moved past prev.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}
