// Package credentials is the on-device backend: password-protected users,
// profiles, the current session slot and dose history, all kept in a
// kvstore.Store.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/cryptox"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Repository stores credentials and user data under namespaced keys.
type Repository struct {
	kv     kvstore.Store
	log    logging.Logger
	now    func() time.Time
	ttl    time.Duration
	newID  func() string
	tokens func() (string, error)
}

type Option func(*Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithSessionTTL overrides DefaultSessionTTL. Non-positive values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func NewRepository(kv kvstore.Store, log logging.Logger, opts ...Option) *Repository {
	r := &Repository{
		kv:     kv,
		log:    log.With("module", "credentials"),
		now:    time.Now,
		ttl:    DefaultSessionTTL,
		newID:  uuid.NewString,
		tokens: cryptox.NewSessionToken,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// UserUpdate is a partial user mutation. Email is immutable.
type UserUpdate struct {
	Name *string
}

// sessionRecord is the persisted form of the current session.
type sessionRecord struct {
	User        models.User `json:"user"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   int64       `json:"expires_at"`
}

func userKey(email string) string     { return common.UserKeyPrefix + common.NormalizeEmail(email) }
func userIDKey(id string) string      { return common.UserIDKeyPrefix + id }
func profileKey(userID string) string { return common.ProfileKeyPrefix + userID }
func dosesKey(userID string) string   { return common.DosesKeyPrefix + userID }

func (r *Repository) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// CreateUser stores a new user with a hashed password. It returns
// common.ErrAlreadyExists when the email is taken, ignoring case.
func (r *Repository) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	email = common.NormalizeEmail(email)
	existing, err := r.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrAlreadyExists
	}

	u := models.StoredUser{
		User: models.User{
			ID:        r.newID(),
			Email:     email,
			Name:      strings.TrimSpace(name),
			CreatedAt: r.now().UTC(),
		},
		PasswordHash: cryptox.HashPassword(password),
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	err = kvstore.SetAll(ctx, r.kv, map[string][]byte{
		userKey(email):   raw,
		userIDKey(u.ID): []byte(email),
	})
	if err != nil {
		return nil, fmt.Errorf("write user: %w", err)
	}
	r.log.Info(ctx, "user created", "user_id", u.ID)
	return &u.User, nil
}

func (r *Repository) findStoredUser(ctx context.Context, email string) (*models.StoredUser, error) {
	var u models.StoredUser
	ok, err := r.getJSON(ctx, userKey(email), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// FindUserByEmail returns (nil, nil) when no user has that email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.findStoredUser(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	return &u.User, nil
}

// AuthenticateUser returns the user only when the password matches. Unknown
// users and wrong passwords both yield (nil, nil).
func (r *Repository) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	u, err := r.findStoredUser(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	ok, err := cryptox.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		r.log.Warn(ctx, "stored password hash unreadable", "user_id", u.ID, "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return &u.User, nil
}

// UpdateUser merges upd into the user with the given id. It reports false
// when the id is unknown.
func (r *Repository) UpdateUser(ctx context.Context, id string, upd UserUpdate) (bool, error) {
	email, err := r.kv.Get(ctx, userIDKey(id))
	if err != nil {
		return false, fmt.Errorf("read %s: %w", userIDKey(id), err)
	}
	if email == nil {
		return false, nil
	}
	u, err := r.findStoredUser(ctx, string(email))
	if err != nil || u == nil {
		return false, err
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if err := r.putJSON(ctx, userKey(u.Email), u); err != nil {
		return false, err
	}
	return true, nil
}

// CreateProfile synthesizes and stores the profile of a freshly created user.
func (r *Repository) CreateProfile(ctx context.Context, u *models.User) (*models.Profile, error) {
	now := r.now().UTC()
	p := &models.Profile{
		ID:        r.newID(),
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.putJSON(ctx, profileKey(u.ID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile returns (nil, nil) when the user has no profile.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	ok, err := r.getJSON(ctx, profileKey(userID), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies upd to the stored profile and returns the result,
// or (nil, nil) when there is no profile to update.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.Profile, error) {
	p, err := r.GetProfile(ctx, userID)
	if err != nil || p == nil {
		return nil, err
	}
	p.Apply(upd, r.now().UTC())
	if err := r.putJSON(ctx, profileKey(userID), p); err != nil {
		return nil, err
	}
	return p, nil
}

// IssueSession replaces the current session with a fresh one for u.
func (r *Repository) IssueSession(ctx context.Context, u *models.User) (*models.Session, error) {
	token, err := r.tokens()
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	expires := r.now().Add(r.ttl)
	rec := sessionRecord{User: *u, AccessToken: token, ExpiresAt: expires.UnixMilli()}
	if err := r.putJSON(ctx, common.CurrentSessionKey, rec); err != nil {
		return nil, err
	}
	return &models.Session{User: *u, AccessToken: token, ExpiresAt: time.UnixMilli(rec.ExpiresAt)}, nil
}

// CurrentSession returns the stored session together with the user's
// profile. Expired or unreadable records are purged; a session whose profile
// is missing is reported as absent.
func (r *Repository) CurrentSession(ctx context.Context) (*models.Session, *models.Profile, error) {
	var rec sessionRecord
	ok, err := r.getJSON(ctx, common.CurrentSessionKey, &rec)
	if err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) {
			r.log.Warn(ctx, "discarding unreadable session record", "error", err)
			return nil, nil, r.DeleteSession(ctx)
		}
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}

	s := &models.Session{User: rec.User, AccessToken: rec.AccessToken, ExpiresAt: time.UnixMilli(rec.ExpiresAt)}
	if s.Expired(r.now()) {
		r.log.Info(ctx, "session expired", "user_id", rec.User.ID)
		return nil, nil, r.DeleteSession(ctx)
	}

	p, err := r.GetProfile(ctx, rec.User.ID)
	if err != nil || p == nil {
		return nil, nil, err
	}
	return s, p, nil
}

func (r *Repository) DeleteSession(ctx context.Context) error {
	if err := r.kv.Delete(ctx, common.CurrentSessionKey); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AddDose appends a dose taken now to the user's history.
func (r *Repository) AddDose(ctx context.Context, userID, doseType string) (*models.Dose, error) {
	var doses []models.Dose
	if _, err := r.getJSON(ctx, dosesKey(userID), &doses); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	d := models.Dose{ID: r.newID(), UserID: userID, DoseType: doseType, TakenAt: now, CreatedAt: now}
	doses = append(doses, d)
	if err := r.putJSON(ctx, dosesKey(userID), doses); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDoses returns the newest doses first. A non-positive limit means
// common.DefaultDoseLimit.
func (r *Repository) ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error) {
	if limit <= 0 {
		limit = common.DefaultDoseLimit
	}
	var doses []models.Dose
	if _, err := r.getJSON(ctx, dosesKey(userID), &doses); err != nil {
		return nil, err
	}
	slices.SortStableFunc(doses, func(a, b models.Dose) int {
		return b.TakenAt.Compare(a.TakenAt)
	})
	if len(doses) > limit {
		doses = doses[:limit]
	}
	return doses, nil
}

// ClearAll removes every record this repository owns.
func (r *Repository) ClearAll(ctx context.Context) (int, error) {
	return kvstore.Sweep(ctx, r.kv, func(key string) bool {
		return key == common.CurrentSessionKey ||
			strings.HasPrefix(key, common.UserKeyPrefix) ||
			strings.HasPrefix(key, common.UserIDKeyPrefix) ||
			strings.HasPrefix(key, common.ProfileKeyPrefix) ||
			strings.HasPrefix(key, common.DosesKeyPrefix)
	})
}
