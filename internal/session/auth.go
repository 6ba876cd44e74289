package session

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
	"github.com/go-playground/validator/v10"
)

type signUpForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Initialize restores the session from the backend. It runs once per store;
// later calls wait for the first one to finish. IsInitialized is true when
// it returns, whatever happened.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initStarted {
		s.mu.Unlock()
		select {
		case <-s.initDone:
		case <-ctx.Done():
		}
		return
	}
	s.initStarted = true
	warm := s.state.clone()
	s.mu.Unlock()

	defer close(s.initDone)
	defer s.markInitialized()

	gen, ok := s.begin(true)
	if !ok {
		return
	}
	defer s.end()

	u, err := s.backend.FetchSession(ctx)
	if errors.Is(err, common.ErrSessionIntegrity) {
		s.log.Warn(ctx, "stored session failed verification", "error", err)
		s.ClearInvalidSession(ctx)
		return
	}
	if err != nil {
		s.log.Error(ctx, "restore session", "error", err)
		u = nil
	}

	s.commit(ctx, gen, func(st *State) {
		st.User = u
		st.IsNewUser = u != nil && warm.User != nil && warm.User.ID == u.ID && warm.IsNewUser
	})
	if u != nil {
		s.log.Info(ctx, "session restored", "user_id", u.ID)
	}
}

// SignIn authenticates and reports whether the store is now signed in as
// the given user. Failures never change the current state.
func (s *Store) SignIn(ctx context.Context, email, password string) bool {
	gen, ok := s.begin(true)
	if !ok {
		return false
	}
	defer s.end()

	u, err := s.backend.Authenticate(ctx, common.NormalizeEmail(email), strings.TrimSpace(password))
	if err != nil {
		s.fail(ctx, "sign in", err)
		return false
	}
	if u == nil {
		s.log.Info(ctx, "sign in rejected")
		return false
	}

	committed := s.commit(ctx, gen, func(st *State) {
		st.User = u
		st.IsNewUser = false
	})
	if !committed {
		s.log.Info(ctx, "sign in superseded", "user_id", u.ID)
	}
	return committed
}

// SignUp creates an account and signs into it, raising IsNewUser.
func (s *Store) SignUp(ctx context.Context, name, email, password string) bool {
	form := signUpForm{
		Name:     strings.TrimSpace(name),
		Email:    common.NormalizeEmail(email),
		Password: strings.TrimSpace(password),
	}
	if err := s.validate.Struct(form); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		s.log.Info(ctx, "sign up rejected", "invalid_fields", fields)
		return false
	}

	gen, ok := s.begin(true)
	if !ok {
		return false
	}
	defer s.end()

	exists, err := s.backend.AccountExists(ctx, form.Email)
	if err != nil {
		s.fail(ctx, "sign up existence check", err)
		return false
	}
	if exists {
		s.log.Info(ctx, "sign up rejected: account exists")
		return false
	}

	u, err := s.backend.CreateAccount(ctx, form.Name, form.Email, form.Password)
	if errors.Is(err, common.ErrAlreadyExists) {
		s.log.Info(ctx, "sign up rejected: account exists")
		return false
	}
	if err != nil {
		s.fail(ctx, "sign up", err)
		return false
	}

	return s.commit(ctx, gen, func(st *State) {
		st.User = u
		st.IsNewUser = true
	})
}

// SignOut wipes app storage, signs out of the backend and leaves the store
// Unauthenticated even when either step fails.
func (s *Store) SignOut(ctx context.Context) {
	gen, ok := s.begin(true)
	if !ok {
		return
	}
	defer s.end()

	s.wipeAppStorage(ctx)
	if err := s.backend.SignOut(ctx); err != nil {
		s.log.Warn(ctx, "backend sign out", "error", err)
	}
	s.commit(ctx, gen, signedOut)
	s.markInitialized()
	s.log.Info(ctx, "signed out")
}

// ClearInvalidSession is the forced variant of SignOut used when the
// backend no longer vouches for the session.
func (s *Store) ClearInvalidSession(ctx context.Context) {
	gen, ok := s.begin(true)
	if !ok {
		return
	}
	defer s.end()

	if err := s.backend.ClearInvalidSession(ctx); err != nil {
		s.log.Warn(ctx, "backend clear invalid session", "error", err)
	}
	s.wipeAppStorage(ctx)
	s.commit(ctx, gen, signedOut)
	s.markInitialized()
	s.log.Warn(ctx, "invalid session cleared")
}

// ClearNewUserFlag drops the one-shot onboarding signal.
func (s *Store) ClearNewUserFlag(ctx context.Context) {
	s.commitIf(ctx, func() bool { return true }, func(st *State) {
		st.IsNewUser = false
	})
}

func signedOut(st *State) {
	st.User = nil
	st.IsNewUser = false
}

func (s *Store) wipeAppStorage(ctx context.Context) {
	if err := kvstore.DeleteKeys(ctx, s.kv, s.wipeKeys...); err != nil {
		s.log.Warn(ctx, "wipe app storage keys", "error", err)
	}
	n, err := kvstore.Sweep(ctx, s.kv, func(key string) bool {
		for _, p := range s.wipePrefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	})
	if err != nil {
		s.log.Warn(ctx, "sweep app storage", "error", err)
		return
	}
	s.log.Debug(ctx, "app storage wiped", "keys_removed", n)
}

// fail logs a backend failure. Integrity failures also tear the session down.
func (s *Store) fail(ctx context.Context, op string, err error) {
	if errors.Is(err, common.ErrSessionIntegrity) {
		s.log.Warn(ctx, op+": session integrity failure", "error", err)
		s.ClearInvalidSession(ctx)
		return
	}
	s.log.Error(ctx, op, "error", err)
}

func (s *Store) currentUser() *models.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone().User
}
