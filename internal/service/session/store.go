package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
)

// ErrSessionNotFound is returned when a session id was never created (or was removed).
var ErrSessionNotFound = errors.New("session not found")

// Options bounds the store. Zero values keep every session for the process lifetime.
type Options struct {
	MaxSessions int
	IdleTTL     time.Duration
}

type entry struct {
	turn    *semaphore.Weighted
	removed atomic.Bool

	mu      sync.Mutex
	session coaching.Session
}

// Store holds coaching sessions in memory. Lookups and creation are guarded by a
// short store-wide critical section; transcript mutation and turn execution are
// serialized per session.
type Store struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, *entry]
	now     func() time.Time
}

// NewStore builds an empty session store.
func NewStore(opts Options) *Store {
	onEvict := func(id string, e *entry) {
		if e.removed.Load() {
			return
		}
		log.Info().Str("session_id", id).Msg("session evicted")
	}
	return &Store{
		entries: expirable.NewLRU[string, *entry](opts.MaxSessions, onEvict, opts.IdleTTL),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate returns the session for id, creating it with cfg and a welcome entry
// when absent. An existing session keeps its original configuration.
func (s *Store) GetOrCreate(id string, cfg coaching.ScenarioConfig) (coaching.Session, bool) {
	s.mu.Lock()
	e, ok := s.entries.Get(id)
	if ok {
		s.entries.Add(id, e)
		s.mu.Unlock()
		return e.snapshot(), false
	}

	cfg = cfg.WithDefaults()
	now := s.now()
	e = &entry{
		turn: semaphore.NewWeighted(1),
		session: coaching.Session{
			ID:         id,
			Config:     cfg,
			Transcript: []string{coaching.WelcomeMessage(cfg)},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	s.entries.Add(id, e)
	s.mu.Unlock()

	return e.snapshot(), true
}

// Append adds one entry to the end of the transcript and returns the new length.
func (s *Store) Append(id, item string) (int, error) {
	e, ok := s.lookup(id)
	if !ok {
		return 0, errors.Wrapf(ErrSessionNotFound, "append to %q", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Transcript = append(e.session.Transcript, item)
	e.session.UpdatedAt = s.now()
	return len(e.session.Transcript), nil
}

// Read returns a copy of the session.
func (s *Store) Read(id string) (coaching.Session, error) {
	s.mu.Lock()
	e, ok := s.entries.Get(id)
	s.mu.Unlock()
	if !ok {
		return coaching.Session{}, ErrSessionNotFound
	}
	return e.snapshot(), nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries.Peek(id); ok {
		e.removed.Store(true)
	}
	s.entries.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Turn is the held turn lock of one session instance. Reads and appends made
// through it apply to that instance only, even if the id is later deleted and
// recreated.
type Turn struct {
	store *Store
	id    string
	entry *entry
	once  sync.Once
}

// Lock acquires the single-writer turn lock of a session.
func (s *Store) Lock(ctx context.Context, id string) (*Turn, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "lock %q", id)
	}
	if err := e.turn.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrapf(err, "wait for turn lock of %q", id)
	}
	turn := &Turn{store: s, id: id, entry: e}
	if !s.holds(id, e) {
		turn.Release()
		return nil, errors.Wrapf(ErrSessionNotFound, "lock %q", id)
	}
	return turn, nil
}

// Session returns a copy of the locked session.
func (t *Turn) Session() coaching.Session {
	return t.entry.snapshot()
}

// Append adds item to the locked session and returns the new length. It fails
// with ErrSessionNotFound once the session has been deleted or evicted.
func (t *Turn) Append(item string) (int, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries.Peek(t.id)
	if !ok || current != t.entry {
		return 0, errors.Wrapf(ErrSessionNotFound, "append to %q", t.id)
	}
	s.entries.Add(t.id, current)

	e := t.entry
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Transcript = append(e.session.Transcript, item)
	e.session.UpdatedAt = s.now()
	return len(e.session.Transcript), nil
}

// Release frees the turn lock. Calling it more than once is safe.
func (t *Turn) Release() {
	t.once.Do(func() { t.entry.turn.Release(1) })
}

// holds reports whether id still maps to e.
func (s *Store) holds(id string, e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries.Peek(id)
	return ok && current == e
}

// lookup finds an entry and refreshes its idle deadline.
func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries.Get(id)
	if ok {
		s.entries.Add(id, e)
	}
	return e, ok
}

func (e *entry) snapshot() coaching.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}
