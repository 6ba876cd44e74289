package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProjection_ProfileNameWins(t *testing.T) {
	u := &User{ID: "u1", Email: "ana@x.com", Name: "Ana"}
	require.Equal(t, &AuthUser{ID: "u1", Name: "Ana", Email: "ana@x.com"}, Projection(u, nil))
	require.Equal(t, "Ana B", Projection(u, &Profile{Name: "Ana B"}).Name)
	require.Nil(t, Projection(nil, nil))
}

func TestProfileApply_AdvancesUpdatedAt(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	p := &Profile{Name: "Ana", UpdatedAt: t0}

	name := "New Name"
	p.Apply(ProfileUpdate{Name: &name}, t0)
	require.Equal(t, "New Name", p.Name)
	require.True(t, p.UpdatedAt.After(t0))

	url := "https://cdn/a.png"
	later := t0.Add(time.Hour)
	p.Apply(ProfileUpdate{AvatarURL: &url}, later)
	require.Equal(t, later, p.UpdatedAt)
	require.Equal(t, url, *p.AvatarURL)
	require.Equal(t, "New Name", p.Name)
}

func TestProfileUpdate_Empty(t *testing.T) {
	require.True(t, ProfileUpdate{}.Empty())
	n := "x"
	require.False(t, ProfileUpdate{Name: &n}.Empty())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now}
	require.False(t, s.Expired(now))
	require.True(t, s.Expired(now.Add(time.Millisecond)))
}
