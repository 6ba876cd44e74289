// Package session holds the authentication state machine:
//
//	Uninitialized -> Initializing -> Authenticated | Unauthenticated
//
// with sign-in/sign-up moving to Authenticated and sign-out or an
// invalid-session clear moving back. Every operation that replaces the
// signed-in identity takes a generation number; a result is only committed
// when its generation is still the newest, so a slow response can never
// overwrite the outcome of a later operation.
//
// The persisted part of the state is mirrored to the key/value store on
// every transition and read back by WarmStart.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/go-playground/validator/v10"
)

type Store struct {
	backend  Backend
	kv       kvstore.Store
	log      logging.Logger
	validate *validator.Validate

	wipeKeys     []string
	wipePrefixes []string

	mu       sync.Mutex
	state    State
	inflight int
	gen      uint64
	disposed bool
	subs     map[int]chan State
	nextSub  int

	initStarted bool
	initDone    chan struct{}
	done        chan struct{}

	// persistMu orders snapshot writes in commit order.
	persistMu sync.Mutex
}

type Option func(*Store)

// WithAppStorage replaces the keys and key prefixes wiped on sign-out.
func WithAppStorage(keys, prefixes []string) Option {
	return func(s *Store) {
		s.wipeKeys = keys
		s.wipePrefixes = prefixes
	}
}

func New(backend Backend, kv kvstore.Store, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		kv:           kv,
		log:          log.With("module", "session"),
		validate:     validator.New(),
		wipeKeys:     common.AppStorageKeys,
		wipePrefixes: common.AppStoragePrefixes,
		subs:         make(map[int]chan State),
		initDone:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Store) currentLocked() State {
	st := s.state.clone()
	st.IsLoading = s.inflight > 0
	return st
}

// Subscribe delivers the latest state after every change. Slow readers only
// see the most recent value. The channel is closed by cancel or Dispose.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	if s.disposed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.currentLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) publishLocked() {
	st := s.currentLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

// Dispose closes all subscriptions and stops watchers. Operations started
// afterwards fail without touching the backend.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	close(s.done)
}

// begin marks an operation in flight. With newGen it also claims the next
// generation, superseding every operation already running.
func (s *Store) begin(newGen bool) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, false
	}
	if newGen {
		s.gen++
	}
	s.inflight++
	s.publishLocked()
	return s.gen, true
}

func (s *Store) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if !s.disposed {
		s.publishLocked()
	}
}

// commit applies fn when gen is still current and persists the result.
func (s *Store) commit(ctx context.Context, gen uint64, fn func(*State)) bool {
	return s.commitIf(ctx, func() bool { return gen == s.gen }, fn)
}

func (s *Store) commitIf(ctx context.Context, cond func() bool, fn func(*State)) bool {
	s.mu.Lock()
	if s.disposed || !cond() {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	s.state.IsAuthenticated = s.state.User != nil
	if s.state.User == nil {
		s.state.IsNewUser = false
	}
	snap := snapshot{
		Version:         snapshotVersion,
		User:            s.state.clone().User,
		IsAuthenticated: s.state.IsAuthenticated,
		IsNewUser:       s.state.IsNewUser,
	}
	s.publishLocked()
	s.persistMu.Lock()
	s.mu.Unlock()

	defer s.persistMu.Unlock()
	s.persist(ctx, snap)
	return true
}

func (s *Store) persist(ctx context.Context, snap snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		s.log.Error(ctx, "encode snapshot", "error", err)
		return
	}
	if err := s.kv.Set(ctx, common.SnapshotKey, raw); err != nil {
		s.log.Warn(ctx, "persist snapshot", "error", err)
	}
}

// WarmStart loads the persisted snapshot so callers can render a likely
// state before Initialize confirms it with the backend. It does nothing once
// Initialize has started.
func (s *Store) WarmStart(ctx context.Context) {
	raw, err := s.kv.Get(ctx, common.SnapshotKey)
	if err != nil {
		s.log.Warn(ctx, "read snapshot", "error", err)
		return
	}
	if raw == nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warn(ctx, "discarding unreadable snapshot", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initStarted || s.disposed {
		return
	}
	s.state.User = snap.User
	s.state.IsAuthenticated = snap.User != nil
	s.state.IsNewUser = snap.User != nil && snap.IsNewUser
	s.publishLocked()
}

func (s *Store) markInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsInitialized {
		return
	}
	s.state.IsInitialized = true
	if !s.disposed {
		s.publishLocked()
	}
}
