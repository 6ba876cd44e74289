package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// providerKeyMarkers select the kv keys swept when a session is cleared.
var providerKeyMarkers = []string{"supabase", "sb-", "auth"}

type Adapter struct {
	provider Provider
	rows     Rows
	kv       kvstore.Store
	log      logging.Logger
	now      func() time.Time
}

func NewAdapter(provider Provider, rows Rows, kv kvstore.Store, log logging.Logger) *Adapter {
	return &Adapter{
		provider: provider,
		rows:     rows,
		kv:       kv,
		log:      log.With("module", "remote"),
		now:      time.Now,
	}
}

// verify checks that the live provider session belongs to userID.
func (a *Adapter) verify(ctx context.Context, userID string) (*Identity, error) {
	id, err := a.provider.GetUser(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if id == nil || id.ID != userID {
		return nil, fmt.Errorf("%w: user verification failed", common.ErrSessionIntegrity)
	}
	return id, nil
}

// GetOrCreateProfile returns the user's profile, creating it if needed. It
// returns an error wrapping common.ErrSessionIntegrity when the live session
// does not belong to userID; all other failures yield (nil, nil).
func (a *Adapter) GetOrCreateProfile(ctx context.Context, userID string) (*models.Profile, error) {
	id, err := a.verify(ctx, userID)
	if err != nil {
		if IsFatal(err) {
			a.log.Error(ctx, "session verification failed", "user_id", userID, "error", err)
			return nil, err
		}
		a.log.Warn(ctx, "could not verify session", "user_id", userID, "error", err)
		return nil, nil
	}

	profiles, err := a.rows.GetOrCreateProfileRPC(ctx, userID)
	if err == nil {
		if len(profiles) == 0 {
			a.log.Warn(ctx, "get_or_create_profile returned nothing", "user_id", userID)
			return nil, nil
		}
		return &profiles[0], nil
	}
	a.log.Warn(ctx, "profile rpc failed, falling back to direct query", "user_id", userID, "error", err)

	p, err := a.rows.ProfileByUserID(ctx, userID)
	if err != nil {
		a.log.Error(ctx, "direct profile query failed", "user_id", userID, "error", err)
		return nil, nil
	}
	if p != nil {
		return p, nil
	}

	fresh := models.Profile{UserID: userID, Name: DisplayName(*id), Email: id.Email}
	if url := id.Metadata["avatar_url"]; url != "" {
		fresh.AvatarURL = &url
	}
	p, err = a.rows.InsertProfile(ctx, fresh)
	if err != nil {
		a.log.Error(ctx, "profile insert failed", "user_id", userID, "error", err)
		return nil, nil
	}
	a.log.Info(ctx, "profile created", "user_id", userID)
	return p, nil
}

// UpdateUserProfile reports whether the update was written.
func (a *Adapter) UpdateUserProfile(ctx context.Context, userID string, upd models.ProfileUpdate) bool {
	if _, err := a.verify(ctx, userID); err != nil {
		a.log.Warn(ctx, "session verification failed for profile update", "user_id", userID, "error", err)
		return false
	}
	if err := a.rows.UpdateProfile(ctx, userID, upd, a.now().UTC()); err != nil {
		a.log.Error(ctx, "profile update failed", "user_id", userID, "error", err)
		return false
	}
	return true
}

// CheckSession verifies the stored session against the provider. A missing
// session, a rejected token or an unknown user yield an error wrapping
// common.ErrSessionIntegrity; storage and network failures are returned as is.
func (a *Adapter) CheckSession(ctx context.Context) error {
	s, err := a.provider.GetSession(ctx)
	if err != nil {
		return classify(err)
	}
	if s == nil {
		return fmt.Errorf("%w: session missing", common.ErrSessionIntegrity)
	}
	id, err := a.provider.GetUser(ctx)
	if err != nil {
		return classify(err)
	}
	if id == nil || id.ID != s.User.ID {
		return fmt.Errorf("%w: user verification failed", common.ErrSessionIntegrity)
	}
	return nil
}

// IsSessionValid reports whether a session exists and its user verifies.
func (a *Adapter) IsSessionValid(ctx context.Context) bool {
	return a.CheckSession(ctx) == nil
}

// ClearInvalidSession signs out and sweeps provider-owned keys. Failures are
// logged, never returned.
func (a *Adapter) ClearInvalidSession(ctx context.Context) {
	if err := a.provider.SignOut(ctx); err != nil {
		a.log.Warn(ctx, "provider sign-out failed", "error", err)
	}
	n, err := kvstore.Sweep(ctx, a.kv, func(key string) bool {
		for _, m := range providerKeyMarkers {
			if strings.Contains(key, m) {
				return true
			}
		}
		return false
	})
	if err != nil {
		a.log.Warn(ctx, "sweeping provider keys failed", "error", err)
		return
	}
	a.log.Info(ctx, "invalid session cleared", "keys_removed", n)
}

func (a *Adapter) AddDose(ctx context.Context, userID, doseType string) (*models.Dose, error) {
	d, err := a.rows.InsertDose(ctx, userID, doseType, a.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("add dose: %w", err)
	}
	return d, nil
}

// ListDoses returns the newest doses first. A non-positive limit means
// common.DefaultDoseLimit.
func (a *Adapter) ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error) {
	if limit <= 0 {
		limit = common.DefaultDoseLimit
	}
	doses, err := a.rows.ListDoses(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list doses: %w", err)
	}
	return doses, nil
}

// CheckConnection probes the row store and the provider session.
func (a *Adapter) CheckConnection(ctx context.Context) error {
	if err := a.rows.Ping(ctx); err != nil {
		return fmt.Errorf("row store: %w", err)
	}
	if _, err := a.provider.GetSession(ctx); err != nil {
		a.log.Warn(ctx, "session check failed", "error", err)
	}
	return nil
}
