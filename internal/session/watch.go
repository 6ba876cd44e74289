package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
)

// Watch periodically checks the remote session while signed in and clears
// it once the backend reports an integrity failure. Transient check errors
// leave the session alone. It returns when ctx is done,
// the store is disposed, or the backend cannot validate sessions.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	v, ok := s.backend.(SessionValidator)
	if !ok || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			st := s.State()
			if !st.IsAuthenticated || st.IsLoading {
				continue
			}
			err := v.CheckSession(ctx)
			switch {
			case err == nil:
			case errors.Is(err, common.ErrSessionIntegrity):
				s.log.Warn(ctx, "remote session no longer valid", "error", err)
				s.ClearInvalidSession(ctx)
			default:
				s.log.Warn(ctx, "session check failed, keeping session", "error", err)
			}
		}
	}
}
