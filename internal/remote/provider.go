// Package remote bridges the session store to a hosted identity provider
// with a row store. The Adapter carries the resilience rules: identity is
// re-verified before every profile access, integrity failures are propagated
// and everything else degrades to an empty result.
package remote

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// Identity is the provider's view of an authenticated user.
type Identity struct {
	ID       string
	Email    string
	Metadata map[string]string
}

// Session is a provider session as returned by sign-in or session fetch.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        Identity
}

// Provider is the identity half of the hosted service.
type Provider interface {
	// SignInWithPassword returns common.ErrorUnauthorized for bad credentials.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error)
	// GetSession returns the locally persisted session, (nil, nil) if none.
	GetSession(ctx context.Context) (*Session, error)
	// GetUser verifies the current session against the provider.
	GetUser(ctx context.Context) (*Identity, error)
	SignOut(ctx context.Context) error
	UserExists(ctx context.Context, email string) (bool, error)
}

// Rows is the row-store half of the hosted service.
type Rows interface {
	GetOrCreateProfileRPC(ctx context.Context, userID string) ([]models.Profile, error)
	// ProfileByUserID returns (nil, nil) when there is no row.
	ProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
	InsertProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate, updatedAt time.Time) error
	InsertDose(ctx context.Context, userID, doseType string, takenAt time.Time) (*models.Dose, error)
	ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error)
	Ping(ctx context.Context) error
}

// DisplayName picks the profile name for an identity: the "name" metadata,
// then the local part of the email, then "User".
func DisplayName(id Identity) string {
	if n := strings.TrimSpace(id.Metadata["name"]); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(id.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}
