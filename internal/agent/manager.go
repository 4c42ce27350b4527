package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
)

// Manager owns the live sessions. The HTTP layer resolves session ids
// through it; ended sessions leave the map and survive only in the archive.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	deps Deps
	opts Options
	log  *logrus.Entry
}

func NewManager(d Deps, opts Options, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     d,
		opts:     opts,
		log:      log,
	}
}

// Create starts a fresh session for the given persona and returns it.
func (m *Manager) Create(p persona.Persona) (*Session, error) {
	s := NewSession(uuid.NewString(), p, m.deps, m.opts, m.log)
	if err := s.Start(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// GetOrCreate resolves an existing session or starts one under the supplied
// id. The text API sends client-generated ids, so the first message of a
// conversation creates its session implicitly.
func (m *Manager) GetOrCreate(id string, p persona.Persona) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s := NewSession(id, p, m.deps, m.opts, m.log)
	if err := s.Start(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	m.sessions[id] = s
	return s, nil
}

// Get returns the live session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End terminates the session, archives it and removes it from the live map.
func (m *Manager) End(ctx context.Context, id string) (call.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return call.Session{}, fmt.Errorf("no session %s", id)
	}
	return s.End(ctx)
}

// Discard drops a session without archiving it.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Abort()
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
