package remote

import (
	"context"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

type fakeProvider struct {
	session    *Session
	sessionErr error
	user       *Identity
	userErr    error
	signInErr  error
	signUpErr  error
	signOutErr error
	exists     bool

	signOuts    int
	signUpMeta  map[string]string
	signInEmail string
}

func (f *fakeProvider) SignInWithPassword(_ context.Context, email, _ string) (*Session, error) {
	f.signInEmail = email
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeProvider) SignUp(_ context.Context, _, _ string, metadata map[string]string) (*Session, error) {
	f.signUpMeta = metadata
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.session, nil
}

func (f *fakeProvider) GetSession(context.Context) (*Session, error) { return f.session, f.sessionErr }
func (f *fakeProvider) GetUser(context.Context) (*Identity, error)   { return f.user, f.userErr }
func (f *fakeProvider) UserExists(context.Context, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeProvider) SignOut(context.Context) error {
	f.signOuts++
	return f.signOutErr
}

type fakeRows struct {
	rpc       []models.Profile
	rpcErr    error
	direct    *models.Profile
	directErr error
	insertErr error
	updateErr error
	pingErr   error
	doses     []models.Dose

	inserted  *models.Profile
	updated   *models.ProfileUpdate
	listLimit int
}

func (f *fakeRows) GetOrCreateProfileRPC(context.Context, string) ([]models.Profile, error) {
	return f.rpc, f.rpcErr
}

func (f *fakeRows) ProfileByUserID(context.Context, string) (*models.Profile, error) {
	return f.direct, f.directErr
}

func (f *fakeRows) InsertProfile(_ context.Context, p models.Profile) (*models.Profile, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	p.ID = "p-new"
	f.inserted = &p
	return &p, nil
}

func (f *fakeRows) UpdateProfile(_ context.Context, _ string, upd models.ProfileUpdate, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = &upd
	return nil
}

func (f *fakeRows) InsertDose(_ context.Context, userID, doseType string, takenAt time.Time) (*models.Dose, error) {
	d := models.Dose{ID: "d1", UserID: userID, DoseType: doseType, TakenAt: takenAt, CreatedAt: takenAt}
	f.doses = append(f.doses, d)
	return &d, nil
}

func (f *fakeRows) ListDoses(_ context.Context, _ string, limit int) ([]models.Dose, error) {
	f.listLimit = limit
	return f.doses, nil
}

func (f *fakeRows) Ping(context.Context) error { return f.pingErr }
