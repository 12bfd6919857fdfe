// Package session holds the per-conversation transcript state shared
// across the independent HTTP requests of one voice intake. It is the
// only cross-request mutable state in the service: in-process,
// unreplicated, lost on restart — an accepted limitation for a
// single-instance deployment.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/carelane/previsit/internal/core/model"
)

var (
	// ErrBusy means a turn is already mid-cycle for this session. Turns
	// are rejected rather than queued so transcripts cannot interleave.
	ErrBusy = errors.New("session has a turn in flight")

	// ErrCompleted means the intake was already finalized.
	ErrCompleted = errors.New("session is completed")
)

// HistoryWindow bounds how many prior turns are replayed to the chat
// provider, for cost and latency control.
const HistoryWindow = 10

type Session struct {
	mu        sync.Mutex
	id        string
	patientID string
	turns     []model.Turn
	busy      bool
	completed bool
}

func (s *Session) ID() string { return s.id }

// Begin claims the session for one turn cycle. Callers must pair it
// with End.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return ErrCompleted
	}
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Session) End() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Append commits fully-finished turns to the transcript. Turns are
// never reordered or deleted once added.
func (s *Session) Append(turns ...model.Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turns...)
	s.mu.Unlock()
}

// Turns returns a copy of the committed transcript.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Recent returns up to the last n committed turns.
func (s *Session) Recent(n int) []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if len(s.turns) > n {
		start = len(s.turns) - n
	}
	out := make([]model.Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out
}

func (s *Session) SetPatientID(id string) {
	s.mu.Lock()
	s.patientID = id
	s.mu.Unlock()
}

func (s *Session) PatientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patientID
}

// Complete moves the session to its terminal state. Further turns are
// rejected; the transcript stays readable.
func (s *Session) Complete() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
}

func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Store maps session ids to sessions. Keys are disjoint per session so
// no cross-session locking is needed.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		s = &Session{id: id}
		st.sessions[id] = s
	}
	return s
}

// Lookup returns the session for id without creating one.
func (st *Store) Lookup(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// FallbackKey derives a best-effort session key from connection
// metadata when the client supplied no session id. Unreliable across
// concurrent users behind one egress point; documented limitation, not
// fixed here.
func FallbackKey(remoteIP, userAgent string) string {
	if remoteIP == "" {
		remoteIP = "ip:unknown"
	}
	if userAgent == "" {
		userAgent = "ua:unknown"
	}
	return fmt.Sprintf("%s::%s", remoteIP, userAgent)
}
