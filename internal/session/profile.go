package session

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// sameUser commits only while userID is still the signed-in user.
func (s *Store) sameUser(userID string) func() bool {
	return func() bool { return s.state.User != nil && s.state.User.ID == userID }
}

// UpdateProfile renames the signed-in user. It is a no-op returning false
// when nobody is signed in.
func (s *Store) UpdateProfile(ctx context.Context, name string) bool {
	name = strings.TrimSpace(name)
	u := s.currentUser()
	if u == nil || name == "" {
		return false
	}
	if _, ok := s.begin(false); !ok {
		return false
	}
	defer s.end()

	ok, err := s.backend.UpdateProfile(ctx, u.ID, models.ProfileUpdate{Name: &name})
	if err != nil {
		s.fail(ctx, "update profile", err)
		return false
	}
	if !ok {
		s.log.Warn(ctx, "profile update not applied", "user_id", u.ID)
		return false
	}
	return s.commitIf(ctx, s.sameUser(u.ID), func(st *State) {
		st.User.Name = name
	})
}

// UpdateAvatar stores a new avatar URL on the signed-in user's profile.
func (s *Store) UpdateAvatar(ctx context.Context, url string) bool {
	u := s.currentUser()
	if u == nil || url == "" {
		return false
	}
	if _, ok := s.begin(false); !ok {
		return false
	}
	defer s.end()

	ok, err := s.backend.UpdateProfile(ctx, u.ID, models.ProfileUpdate{AvatarURL: &url})
	if err != nil {
		s.fail(ctx, "update avatar", err)
		return false
	}
	return ok
}

// Profile returns the signed-in user's profile, or common.ErrorUnauthorized
// when nobody is signed in.
func (s *Store) Profile(ctx context.Context) (*models.Profile, error) {
	u := s.currentUser()
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	if _, ok := s.begin(false); !ok {
		return nil, common.ErrDisposed
	}
	defer s.end()

	p, err := s.backend.GetProfile(ctx, u.ID)
	if err != nil {
		s.fail(ctx, "get profile", err)
		return nil, err
	}
	return p, nil
}
