// Package session holds the in-progress multi-step dialogue state per
// conversation, plus the per-conversation turn lock that serializes
// read-modify-write cycles across the engine's asynchronous suspension
// points (reply sends, ledger persistence).
//
// "No session" is represented explicitly: Get returns (Session, false) so
// the idle case must be handled at the call site rather than defaulted away.
package session

import (
	"sync"
	"time"

	"github.com/arenalk/bookingbot/internal/domain"
)

// State is the dialogue sub-state of a booking flow. The idle state has no
// Session at all; only multi-turn flows create one.
type State string

const (
	StateAwaitUnit            State = "await_unit"
	StateAwaitDate            State = "await_date"
	StateAwaitTime            State = "await_time"
	StateAwaitName            State = "await_name"
	StateAwaitPhone           State = "await_phone"
	StateAwaitCompanionChoice State = "await_companion_choice"
	StateAwaitCompanionName   State = "await_companion_name"
)

// Draft is the partially filled booking accumulated across turns. Fields
// stay zero until the corresponding state collects them.
type Draft struct {
	Unit      domain.Unit
	Date      string
	Time      string
	Name      string
	Phone     string
	Companion string
}

// Session is one conversation's dialogue position. It is deleted on flow
// completion, cancellation, or explicit return to the menu.
type Session struct {
	State      State
	Draft      Draft
	LastActive time.Time
}

// Store keeps sessions keyed by conversation id. It is safe for concurrent
// use, but callers must hold the conversation's turn lock (Lock) for the
// whole load-compute-persist cycle of a dialogue turn.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session

	lockMu sync.Mutex
	locks  map[string]*turnLock
}

// turnLock is one conversation's serialization point. refs counts holders
// plus waiters; the map entry is dropped when it reaches zero, so the lock
// map stays bounded by conversations with turns actually in flight.
type turnLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		locks:    make(map[string]*turnLock),
	}
}

// Lock acquires the turn lock for a conversation and returns its release
// function. While held, no other turn for the same conversation may observe
// or overwrite the session.
func (s *Store) Lock(conversationID string) (unlock func()) {
	s.lockMu.Lock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &turnLock{}
		s.locks[conversationID] = l
	}
	l.refs++
	s.lockMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, conversationID)
		}
		s.lockMu.Unlock()
	}
}

// Get returns the session for a conversation, if one exists.
func (s *Store) Get(conversationID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[conversationID]
	return sess, ok
}

// Put stores or replaces the session for a conversation.
func (s *Store) Put(conversationID string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[conversationID] = sess
}

// Delete removes the session for a conversation. Deleting an absent session
// is a no-op.
func (s *Store) Delete(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, conversationID)
}

// Len reports how many conversations currently hold a session.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
