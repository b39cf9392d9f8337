package atc

import (
	"time"

	"github.com/avsim/atc-engine/internal/config"
)

// Role identifies who spoke a turn.
type Role string

const (
	RolePilot Role = "pilot"
	RoleATC   Role = "atc"
)

// Turn is one recorded message with the position that was active when it
// occurred. Turns are immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Position  Position  `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the per-tuned-airport state bundle: override mode and
// effective position (via the Selector), bounded conversation history, and
// the controller persona cache. A session is created on first tune-in and
// lives for the lifetime of the engine; re-tuning reuses it.
//
// Sessions are not internally synchronized; the owning engine serializes
// access.
type Session struct {
	AirportCode string
	Selector    *Selector

	history    []Turn
	maxHistory int
	personas   map[Position]Persona
}

func newSession(code string, cfg config.ATCConfig) *Session {
	return &Session{
		AirportCode: code,
		Selector:    NewSelector(cfg),
		maxHistory:  cfg.MaxHistoryEntries,
		personas:    make(map[Position]Persona),
	}
}

// Append records a turn, evicting the oldest entries beyond the configured
// maximum (FIFO).
func (s *Session) Append(turn Turn) {
	s.history = append(s.history, turn)
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
}

// History returns a copy of the recorded turns, oldest first.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// LastTurns returns a copy of the most recent n turns, oldest first.
func (s *Session) LastTurns(n int) []Turn {
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]Turn, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// cachedPersona returns the persona for a position, if one has been
// assigned to this session.
func (s *Session) cachedPersona(p Position) (Persona, bool) {
	persona, ok := s.personas[p]
	return persona, ok
}

func (s *Session) cachePersona(p Position, persona Persona) {
	s.personas[p] = persona
}

// SessionStore owns all sessions, keyed by airport code. Sessions are never
// evicted; an engine restart clears them.
type SessionStore struct {
	sessions map[string]*Session
	cfg      config.ATCConfig
}

// NewSessionStore creates an empty session store.
func NewSessionStore(cfg config.ATCConfig) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		cfg:      cfg,
	}
}

// GetOrCreate returns the session for an airport code, creating it on first
// tune-in. The second return value reports whether the session already
// existed.
func (st *SessionStore) GetOrCreate(code string) (*Session, bool) {
	if session, ok := st.sessions[code]; ok {
		return session, true
	}
	session := newSession(code, st.cfg)
	st.sessions[code] = session
	return session, false
}

// Get returns the session for an airport code, if it exists.
func (st *SessionStore) Get(code string) (*Session, bool) {
	session, ok := st.sessions[code]
	return session, ok
}

// Count returns the number of sessions.
func (st *SessionStore) Count() int {
	return len(st.sessions)
}
