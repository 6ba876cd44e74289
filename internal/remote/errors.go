package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
)

var fatalMarkers = []string{"jwt", "token", "session", "user_not_found", "user not found"}

// IsFatal reports whether err means the session itself can no longer be
// trusted and must be torn down. Errors marked common.ErrUnavailable are
// never fatal, whatever their text says.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrSessionIntegrity) {
		return true
	}
	if errors.Is(err, common.ErrUnavailable) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// classify marks fatal provider errors with common.ErrSessionIntegrity and
// passes everything else through.
func classify(err error) error {
	if err == nil || errors.Is(err, common.ErrSessionIntegrity) || !IsFatal(err) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrSessionIntegrity, err)
}
