// Package session tracks the currently authenticated account and its
// inactivity countdown. All state lives on explicit objects; there are no
// package-level variables.
package session

import (
	"errors"
	"sync"
	"time"

	"bankist/internal/auth"
	"bankist/internal/models"
	"bankist/internal/storage"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong PINs alike.
	ErrInvalidCredentials = errors.New("invalid username or pin")
	// ErrSessionExpired is returned for operations without an active session.
	ErrSessionExpired = errors.New("session expired, log in to get started")
)

// Session is the state bound to one authenticated account: the inactivity
// countdown, the movement sort flag and any timers pending on its behalf
// (deferred loan credits). A session stops being usable once torn down, even
// if a stale pointer to it survives.
type Session struct {
	Token   string
	Account *models.Account

	mu        sync.Mutex
	active    bool
	remaining int
	ttl       int
	sortAsc   bool
	timers    []*time.Timer
}

// Active reports whether the session has neither expired nor been logged out.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Remaining returns the countdown seconds left.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Touch resets the inactivity countdown to its full TTL. Every mutating
// operation calls this; passive viewing does not.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.remaining = s.ttl
	}
}

// ToggleSort flips the movement display order and returns the new flag.
func (s *Session) ToggleSort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortAsc = !s.sortAsc
	return s.sortAsc
}

// SortAscending reports the current movement display order.
func (s *Session) SortAscending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortAsc
}

// TrackTimer registers a pending timer so teardown can cancel it.
func (s *Session) TrackTimer(t *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		t.Stop()
		return
	}
	s.timers = append(s.timers, t)
}

// tick decrements the countdown. Expiry fires exactly once, at the tick
// where remaining reaches zero; the session is torn down before reporting.
func (s *Session) tick() (remaining int, expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, false
	}
	s.remaining--
	if s.remaining <= 0 {
		s.teardownLocked()
		return 0, true
	}
	return s.remaining, false
}

func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

func (s *Session) teardownLocked() {
	s.active = false
	s.remaining = 0
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// Manager owns the single active session. Login, logout, expiry and account
// closure all funnel through it, serialized by one mutex, so two countdowns
// can never run at once.
type Manager struct {
	mu      sync.Mutex
	db      *storage.DB
	ttl     int
	current *Session
}

// NewManager creates a Manager with the given inactivity TTL in seconds.
func NewManager(db *storage.DB, ttlSeconds int) *Manager {
	return &Manager{db: db, ttl: ttlSeconds}
}

// Login validates credentials against the account directory. On success any
// previous session is torn down first (cancelling its countdown and pending
// timers) and a fresh session starts with a full countdown. On failure the
// previous session, if any, is left untouched.
func (m *Manager) Login(username, pin string) (*Session, error) {
	account, err := m.db.AccountByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPIN(pin, account.PINHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.teardown()
	}
	m.current = &Session{
		Token:     token,
		Account:   account,
		active:    true,
		remaining: m.ttl,
		ttl:       m.ttl,
	}
	return m.current, nil
}

// Current returns the active session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && !m.current.Active() {
		m.current = nil
	}
	return m.current
}

// Logout tears down the active session, if any.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.teardown()
		m.current = nil
	}
}

// Tick advances the countdown by one second. It reports the remaining
// seconds and whether this tick expired the session.
func (m *Manager) Tick() (remaining int, expired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return 0, false
	}
	remaining, expired = m.current.tick()
	if expired {
		m.current = nil
	}
	return remaining, expired
}
