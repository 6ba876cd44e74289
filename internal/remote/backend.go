package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// Backend exposes the hosted provider as the session store's backend.
type Backend struct {
	adapter  *Adapter
	provider Provider
	rows     Rows
}

func NewBackend(adapter *Adapter, provider Provider, rows Rows) *Backend {
	return &Backend{adapter: adapter, provider: provider, rows: rows}
}

func project(id Identity, p *models.Profile) *models.AuthUser {
	if p != nil {
		return &models.AuthUser{ID: id.ID, Name: p.Name, Email: id.Email}
	}
	return &models.AuthUser{ID: id.ID, Name: DisplayName(id), Email: id.Email}
}

func (b *Backend) CreateAccount(ctx context.Context, name, email, password string) (*models.AuthUser, error) {
	s, err := b.provider.SignUp(ctx, email, password, map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("sign up: %w: no session issued", common.ErrorUnauthorized)
	}
	p, err := b.adapter.GetOrCreateProfile(ctx, s.User.ID)
	if err != nil {
		return nil, err
	}
	return project(s.User, p), nil
}

// Authenticate returns (nil, nil) when the provider rejects the credentials.
func (b *Backend) Authenticate(ctx context.Context, email, password string) (*models.AuthUser, error) {
	s, err := b.provider.SignInWithPassword(ctx, email, password)
	if errors.Is(err, common.ErrorUnauthorized) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	p, err := b.adapter.GetOrCreateProfile(ctx, s.User.ID)
	if err != nil {
		return nil, err
	}
	return project(s.User, p), nil
}

func (b *Backend) FetchSession(ctx context.Context) (*models.AuthUser, error) {
	s, err := b.provider.GetSession(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if s == nil {
		return nil, nil
	}
	p, err := b.adapter.GetOrCreateProfile(ctx, s.User.ID)
	if err != nil {
		return nil, err
	}
	return project(s.User, p), nil
}

func (b *Backend) AccountExists(ctx context.Context, email string) (bool, error) {
	return b.provider.UserExists(ctx, email)
}

func (b *Backend) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (bool, error) {
	return b.adapter.UpdateUserProfile(ctx, userID, upd), nil
}

func (b *Backend) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return b.rows.ProfileByUserID(ctx, userID)
}

func (b *Backend) SignOut(ctx context.Context) error {
	return b.provider.SignOut(ctx)
}

func (b *Backend) ClearInvalidSession(ctx context.Context) error {
	b.adapter.ClearInvalidSession(ctx)
	return nil
}

func (b *Backend) RecordDose(ctx context.Context, userID, doseType string) (*models.Dose, error) {
	return b.adapter.AddDose(ctx, userID, doseType)
}

func (b *Backend) ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error) {
	return b.adapter.ListDoses(ctx, userID, limit)
}

// CheckSession lets the session store watch the remote session.
func (b *Backend) CheckSession(ctx context.Context) error {
	return b.adapter.CheckSession(ctx)
}

func (b *Backend) IsSessionValid(ctx context.Context) bool {
	return b.adapter.IsSessionValid(ctx)
}

func (b *Backend) CheckConnection(ctx context.Context) error {
	return b.adapter.CheckConnection(ctx)
}
