package session

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

// doseCache is the last dose listing kept for offline reads.
type doseCache struct {
	UserID string        `json:"userId"`
	Doses  []models.Dose `json:"doses"`
}

// RecordDose logs a dose for the signed-in user.
func (s *Store) RecordDose(ctx context.Context, doseType string) (*models.Dose, error) {
	u := s.currentUser()
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	if _, ok := s.begin(false); !ok {
		return nil, common.ErrDisposed
	}
	defer s.end()

	d, err := s.backend.RecordDose(ctx, u.ID, doseType)
	if err != nil {
		s.fail(ctx, "record dose", err)
		return nil, err
	}
	return d, nil
}

// Doses lists the signed-in user's newest doses. When the backend fails the
// last listing cached for that user is returned instead.
func (s *Store) Doses(ctx context.Context, limit int) ([]models.Dose, error) {
	u := s.currentUser()
	if u == nil {
		return nil, common.ErrorUnauthorized
	}
	if _, ok := s.begin(false); !ok {
		return nil, common.ErrDisposed
	}
	defer s.end()

	doses, err := s.backend.ListDoses(ctx, u.ID, limit)
	if err != nil {
		if cached, ok := s.cachedDoses(ctx, u.ID, limit); ok {
			s.log.Warn(ctx, "list doses failed, serving cache", "error", err)
			return cached, nil
		}
		s.fail(ctx, "list doses", err)
		return nil, err
	}

	raw, err := json.Marshal(doseCache{UserID: u.ID, Doses: doses})
	if err == nil {
		err = s.kv.Set(ctx, common.DoseCacheKey, raw)
	}
	if err != nil {
		s.log.Warn(ctx, "cache doses", "error", err)
	}
	return doses, nil
}

func (s *Store) cachedDoses(ctx context.Context, userID string, limit int) ([]models.Dose, bool) {
	raw, err := s.kv.Get(ctx, common.DoseCacheKey)
	if err != nil || raw == nil {
		return nil, false
	}
	var c doseCache
	if err := json.Unmarshal(raw, &c); err != nil || c.UserID != userID {
		return nil, false
	}
	if limit > 0 && len(c.Doses) > limit {
		c.Doses = c.Doses[:limit]
	}
	return c.Doses, true
}
