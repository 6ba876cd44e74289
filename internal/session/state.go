package session

import "github.com/dmitrijs2005/dosekeeper/internal/models"

// State is the observable store state. IsAuthenticated == (User != nil)
// holds whenever no operation is committing.
type State struct {
	User            *models.AuthUser
	IsAuthenticated bool
	IsLoading       bool
	IsInitialized   bool
	IsNewUser       bool
}

const snapshotVersion = 1

// snapshot is the persisted subset of State.
type snapshot struct {
	Version         int              `json:"version"`
	User            *models.AuthUser `json:"user"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	IsNewUser       bool             `json:"isNewUser"`
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
