package checkout

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-checkout/internal/pricing"
)

// ErrSessionNotFound indicates the session id is unknown or has expired.
var ErrSessionNotFound = errors.New("checkout session not found")

// Session wraps a Checkout so that one register's calls are serialised.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu       sync.Mutex
	co       *Checkout
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's checkout.
func (s *Session) Do(fn func(*Checkout) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.co)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionStore holds independent checkout sessions that share one rule set.
type SessionStore struct {
	Rules   []pricing.Rule
	IdleTTL time.Duration
	Now     func() time.Time
	Logger  zerolog.Logger
	// OnChange observes the number of open sessions after it changes.
	OnChange func(open int)

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewSessionStore constructs a store pricing every session with rules.
func NewSessionStore(rules []pricing.Rule, idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		Rules:    append([]pricing.Rule(nil), rules...),
		IdleTTL:  idleTTL,
		Logger:   zerolog.Nop(),
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (st *SessionStore) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

// Open starts a new session.
func (st *SessionStore) Open() *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		co:        New(st.Rules, WithLogger(st.Logger)),
		lastSeen:  now,
	}
	st.mu.Lock()
	if st.sessions == nil {
		st.sessions = make(map[uuid.UUID]*Session)
	}
	st.sessions[s.ID] = s
	open := len(st.sessions)
	st.mu.Unlock()
	st.changed(open)
	return s
}

// Get returns a live session and refreshes its idle timer.
func (st *SessionStore) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := st.now()
	if st.expired(s, now) {
		st.remove(id)
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Close discards a session.
func (st *SessionStore) Close(id uuid.UUID) error {
	if !st.remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Sweep discards sessions idle for longer than IdleTTL and returns how many
// were removed.
func (st *SessionStore) Sweep() int {
	if st.IdleTTL <= 0 {
		return 0
	}
	now := st.now()
	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	open := len(st.sessions)
	st.mu.Unlock()
	if removed > 0 {
		st.Logger.Info().Int("removed", removed).Int("open", open).Msg("swept idle checkout sessions")
		st.changed(open)
	}
	return removed
}

// Len returns the number of open sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *SessionStore) expired(s *Session, now time.Time) bool {
	return st.IdleTTL > 0 && now.Sub(s.idleSince()) > st.IdleTTL
}

func (st *SessionStore) remove(id uuid.UUID) bool {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	open := len(st.sessions)
	st.mu.Unlock()
	if ok {
		st.changed(open)
	}
	return ok
}

func (st *SessionStore) changed(open int) {
	if st.OnChange != nil {
		st.OnChange(open)
	}
}
