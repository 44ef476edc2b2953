package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chart-feed/src/logger"
	"chart-feed/src/models"
)

// Manager is the named registry of sessions owned by the process.
type Manager struct {
	Sessions   map[string]*Session
	Logger     *logger.Logger
	mu         sync.RWMutex
	ctx        context.Context // set while running
	cancelFunc context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewManager(sessions []*Session, log *logger.Logger) *Manager {
	m := &Manager{
		Sessions: make(map[string]*Session),
		Logger:   log,
	}
	for _, s := range sessions {
		m.Sessions[s.Name()] = s
	}
	return m
}

// -----------------------------------------------------------------------------

// AddSession registers a session and starts it if the manager is running.
func (m *Manager) AddSession(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := s.Name()
	if _, exists := m.Sessions[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrSessionExists)
	}

	m.Sessions[name] = s
	m.Logger.Info("Added session: %s", name)

	if m.ctx != nil {
		if err := s.Start(m.ctx); err != nil {
			return fmt.Errorf("failed to start session %s: %w", name, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSession stops and unregisters a session.
func (m *Manager) RemoveSession(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.Sessions[name]
	if !exists {
		return fmt.Errorf("%s: %w", name, ErrSessionNotFound)
	}

	if s.IsRunning() {
		if err := s.Stop(); err != nil {
			m.Logger.Error("Error stopping session %s: %v", name, err)
		}
	}

	delete(m.Sessions, name)
	m.Logger.Info("Removed session: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (m *Manager) GetSession(name string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.Sessions[name]
	if !exists {
		return nil, fmt.Errorf("%s: %w", name, ErrSessionNotFound)
	}
	return s, nil
}

// -----------------------------------------------------------------------------

// GetAllSessions returns every session ordered by name.
func (m *Manager) GetAllSessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Statuses summarises all sessions, ordered by name.
func (m *Manager) Statuses() []models.MSessionStatus {
	sessions := m.GetAllSessions()
	out := make([]models.MSessionStatus, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Status())
	}
	return out
}

// -----------------------------------------------------------------------------

// Start starts every registered session under a context derived from parentCtx.
func (m *Manager) Start(parentCtx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx != nil {
		return fmt.Errorf("session manager is already running")
	}

	ctx, cancel := context.WithCancel(parentCtx)
	m.ctx = ctx
	m.cancelFunc = cancel

	for name, s := range m.Sessions {
		if err := s.Start(ctx); err != nil {
			m.Logger.Error("Failed to start session %s: %v", name, err)
			return err
		}
	}
	m.Logger.Info("Session manager started %d sessions", len(m.Sessions))
	return nil
}

// -----------------------------------------------------------------------------

// Stop stops every running session and waits for their tasks.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx == nil {
		return nil
	}

	m.Logger.Info("Stopping session manager...")
	for _, s := range m.Sessions {
		if s.IsRunning() {
			if err := s.Stop(); err != nil {
				m.Logger.Warning("Stopping session %s: %v", s.Name(), err)
			}
		}
	}

	m.cancelFunc()
	m.cancelFunc = nil
	m.ctx = nil

	m.Logger.Info("Session manager stopped.")
	return nil
}

// -----------------------------------------------------------------------------

// StartSession starts one registered session.
func (m *Manager) StartSession(name string) error {
	m.mu.RLock()
	s, exists := m.Sessions[name]
	ctx := m.ctx
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%s: %w", name, ErrSessionNotFound)
	}
	if ctx == nil {
		return fmt.Errorf("session manager is not running")
	}
	return s.Start(ctx)
}

// -----------------------------------------------------------------------------

// StopSession stops one registered session.
func (m *Manager) StopSession(name string) error {
	s, err := m.GetSession(name)
	if err != nil {
		return err
	}
	return s.Stop()
}
