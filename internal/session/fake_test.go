package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// fakeBackend answers from function fields; nil fields behave as absent.
type fakeBackend struct {
	createFn       func(ctx context.Context, name, email, password string) (*models.AuthUser, error)
	authenticateFn func(ctx context.Context, email, password string) (*models.AuthUser, error)
	fetchFn        func(ctx context.Context) (*models.AuthUser, error)
	existsFn       func(ctx context.Context, email string) (bool, error)
	updateFn       func(ctx context.Context, userID string, upd models.ProfileUpdate) (bool, error)
	listFn         func(ctx context.Context, userID string, limit int) ([]models.Dose, error)
	signOutErr     error
	clearErr       error

	fetchCalls atomic.Int32
	signOuts   atomic.Int32
	clears     atomic.Int32
}

func (f *fakeBackend) CreateAccount(ctx context.Context, name, email, password string) (*models.AuthUser, error) {
	if f.createFn == nil {
		return &models.AuthUser{ID: "new", Name: name, Email: email}, nil
	}
	return f.createFn(ctx, name, email, password)
}

func (f *fakeBackend) Authenticate(ctx context.Context, email, password string) (*models.AuthUser, error) {
	if f.authenticateFn == nil {
		return nil, nil
	}
	return f.authenticateFn(ctx, email, password)
}

func (f *fakeBackend) FetchSession(ctx context.Context) (*models.AuthUser, error) {
	f.fetchCalls.Add(1)
	if f.fetchFn == nil {
		return nil, nil
	}
	return f.fetchFn(ctx)
}

func (f *fakeBackend) AccountExists(ctx context.Context, email string) (bool, error) {
	if f.existsFn == nil {
		return false, nil
	}
	return f.existsFn(ctx, email)
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (bool, error) {
	if f.updateFn == nil {
		return true, nil
	}
	return f.updateFn(ctx, userID, upd)
}

func (f *fakeBackend) GetProfile(context.Context, string) (*models.Profile, error) {
	return nil, nil
}

func (f *fakeBackend) SignOut(context.Context) error {
	f.signOuts.Add(1)
	return f.signOutErr
}

func (f *fakeBackend) ClearInvalidSession(context.Context) error {
	f.clears.Add(1)
	return f.clearErr
}

func (f *fakeBackend) RecordDose(_ context.Context, userID, doseType string) (*models.Dose, error) {
	return &models.Dose{ID: "d1", UserID: userID, DoseType: doseType}, nil
}

func (f *fakeBackend) ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, userID, limit)
}

// validatingBackend adds remote session validation to fakeBackend.
type validatingBackend struct {
	*fakeBackend
	mu     sync.Mutex
	err    error
	checks int
}

func (v *validatingBackend) CheckSession(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checks++
	return v.err
}

func (v *validatingBackend) setErr(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
	v.checks = 0
}

func (v *validatingBackend) checkCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checks
}
