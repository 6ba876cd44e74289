package session

import (
	"context"

	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// Backend is the persistence capability the store drives. The local and the
// remote backends implement it; one is chosen at construction time.
//
// Lookups signal absence with a nil result and a nil error. An error wrapping
// common.ErrSessionIntegrity forces a full invalid-session wipe.
type Backend interface {
	CreateAccount(ctx context.Context, name, email, password string) (*models.AuthUser, error)
	Authenticate(ctx context.Context, email, password string) (*models.AuthUser, error)
	FetchSession(ctx context.Context) (*models.AuthUser, error)
	AccountExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (bool, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SignOut(ctx context.Context) error
	ClearInvalidSession(ctx context.Context) error
	RecordDose(ctx context.Context, userID, doseType string) (*models.Dose, error)
	ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error)
}

// SessionValidator is implemented by backends that can check a session
// against a remote authority. Only an error wrapping
// common.ErrSessionIntegrity means the session is gone.
type SessionValidator interface {
	CheckSession(ctx context.Context) error
}
