package credentials

import (
	"context"

	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// LocalBackend exposes a Repository as the session store's backend.
type LocalBackend struct {
	repo *Repository
}

func NewLocalBackend(repo *Repository) *LocalBackend {
	return &LocalBackend{repo: repo}
}

func (b *LocalBackend) CreateAccount(ctx context.Context, name, email, password string) (*models.AuthUser, error) {
	u, err := b.repo.CreateUser(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	p, err := b.repo.CreateProfile(ctx, u)
	if err != nil {
		return nil, err
	}
	if _, err := b.repo.IssueSession(ctx, u); err != nil {
		return nil, err
	}
	return models.Projection(u, p), nil
}

// Authenticate returns (nil, nil) for unknown users, wrong passwords and
// users whose profile has gone missing.
func (b *LocalBackend) Authenticate(ctx context.Context, email, password string) (*models.AuthUser, error) {
	u, err := b.repo.AuthenticateUser(ctx, email, password)
	if err != nil || u == nil {
		return nil, err
	}
	p, err := b.repo.GetProfile(ctx, u.ID)
	if err != nil || p == nil {
		return nil, err
	}
	if _, err := b.repo.IssueSession(ctx, u); err != nil {
		return nil, err
	}
	return models.Projection(u, p), nil
}

func (b *LocalBackend) FetchSession(ctx context.Context) (*models.AuthUser, error) {
	s, p, err := b.repo.CurrentSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	return models.Projection(&s.User, p), nil
}

func (b *LocalBackend) AccountExists(ctx context.Context, email string) (bool, error) {
	u, err := b.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// UpdateProfile also renames the user record so both stay in step.
func (b *LocalBackend) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (bool, error) {
	p, err := b.repo.UpdateProfile(ctx, userID, upd)
	if err != nil || p == nil {
		return false, err
	}
	if upd.Name != nil {
		if _, err := b.repo.UpdateUser(ctx, userID, UserUpdate{Name: upd.Name}); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (b *LocalBackend) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return b.repo.GetProfile(ctx, userID)
}

func (b *LocalBackend) SignOut(ctx context.Context) error {
	return b.repo.DeleteSession(ctx)
}

func (b *LocalBackend) ClearInvalidSession(ctx context.Context) error {
	return b.repo.DeleteSession(ctx)
}

func (b *LocalBackend) RecordDose(ctx context.Context, userID, doseType string) (*models.Dose, error) {
	return b.repo.AddDose(ctx, userID, doseType)
}

func (b *LocalBackend) ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error) {
	return b.repo.ListDoses(ctx, userID, limit)
}
