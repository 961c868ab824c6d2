package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/geonseol-backend/internal/dataset"
	"github.com/ikkim/geonseol-backend/pkg/logger"
)

// Session is the single owner of the current user for one client: its gate
// and the workspace loaded for the authenticated user.
type Session struct {
	ID        string
	Gate      *Gate
	Workspace *dataset.Workspace
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch records activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Sync brings the workspace in line with the gate: an authenticated user
// gets a fresh load, anything else closes the load gate.
func (s *Session) Sync(ctx context.Context) error {
	user := s.Gate.User()
	if user == "" {
		if s.Workspace.User() != "" {
			s.Workspace.Reset()
		}
		return nil
	}
	if s.Workspace.User() == user && s.Workspace.Loaded() {
		return nil
	}
	s.Workspace.Reset()
	return s.Workspace.Load(ctx, user)
}

// User returns the authenticated user whose workspace is loaded.
func (s *Session) User() (string, error) {
	user := s.Gate.User()
	if user == "" || s.Workspace.User() != user || !s.Workspace.Loaded() {
		return "", ErrNotAuthenticated
	}
	return user, nil
}

// WorkspaceFactory builds an empty workspace for the session with the given id.
type WorkspaceFactory func(sessionID string) *dataset.Workspace

// Manager is the registry of live sessions.
type Manager struct {
	newWorkspace WorkspaceFactory
	verifier     *KeyVerifier
	flags        FlagStore

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(factory WorkspaceFactory, verifier *KeyVerifier, flags FlagStore) *Manager {
	return &Manager{
		newWorkspace: factory,
		verifier:     verifier,
		flags:        flags,
		sessions:     make(map[string]*Session),
	}
}

// Create starts a new session in NoSession.
func (m *Manager) Create() *Session {
	now := time.Now()
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		Gate:      NewGate(m.verifier, m.flags),
		Workspace: m.newWorkspace(id),
		CreatedAt: now,
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	logger.Debug("Session created", map[string]interface{}{"session_id": s.ID})
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops the session after draining its pending writes.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Workspace.Close()
		logger.Debug("Session removed", map[string]interface{}{"session_id": id})
	}
}

// Sessions returns a snapshot of the live sessions.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// ByUser returns the sessions currently authenticated as user.
func (m *Manager) ByUser(user string) []*Session {
	var out []*Session
	for _, s := range m.Sessions() {
		if s.Gate.User() == user {
			out = append(out, s)
		}
	}
	return out
}

// ExpireIdle removes sessions idle for longer than maxIdle.
func (m *Manager) ExpireIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for _, s := range m.Sessions() {
		if s.LastSeen().Before(cutoff) {
			m.Remove(s.ID)
			n++
		}
	}
	return n
}

// Close drains and removes every session.
func (m *Manager) Close() {
	for _, s := range m.Sessions() {
		m.Remove(s.ID)
	}
}
