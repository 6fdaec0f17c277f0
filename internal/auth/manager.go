// Package auth tracks the authenticated backend session: sign-in,
// sign-up, sign-out, local persistence across launches, and change
// notification for consumers that need to re-subscribe or tear down when
// the user changes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"

	"taskflow/internal/remote"
)

// ErrNoSession is returned when an operation needs a signed-in session
// and none is present.
var ErrNoSession = errors.New("auth: no session")

// Manager owns the current session. All methods are safe for concurrent
// use. Change hooks fire whenever the session is established, refreshed,
// or cleared.
type Manager struct {
	authn  remote.Authenticator
	path   string // session file, written with mode 0600
	logger *log.Logger

	mu       sync.Mutex
	session  *remote.Session
	hooks    map[int]func(*remote.Session)
	nextHook int
}

// NewManager creates a session manager persisting to path. logger may be
// nil; it defaults to log.Default.
func NewManager(authn remote.Authenticator, path string, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		authn:  authn,
		path:   path,
		logger: logger,
		hooks:  make(map[int]func(*remote.Session)),
	}
}

// SignIn performs an email/password sign-in, installs and persists the
// session, and fires change hooks.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*remote.Session, error) {
	session, err := m.authn.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.install(session)
	return session, nil
}

// SignUp registers a new user. When the backend's policy requires email
// confirmation the returned session is nil while the user is not; only a
// usable session is installed.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*remote.Session, *remote.User, error) {
	session, user, err := m.authn.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if session != nil {
		m.install(session)
	}
	return session, user, nil
}

// SignOut revokes the remote session and clears local state. The local
// session is cleared even when revocation fails; the failure is logged.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()

	if session != nil {
		if err := m.authn.SignOut(ctx, session.Token.AccessToken); err != nil {
			m.logger.Printf("auth: sign out: %v", err)
		}
	}

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		m.logger.Printf("auth: remove session file: %v", err)
	}
	m.install(nil)
}

// Refresh exchanges the refresh token for a fresh session, persists it,
// and fires change hooks.
func (m *Manager) Refresh(ctx context.Context) (*remote.Session, error) {
	m.mu.Lock()
	session := m.session
	m.mu.Unlock()
	if session == nil || session.Token.RefreshToken == "" {
		return nil, ErrNoSession
	}

	fresh, err := m.authn.Refresh(ctx, session.Token.RefreshToken)
	if err != nil {
		return nil, err
	}
	m.install(fresh)
	return fresh, nil
}

// Restore loads the persisted session from disk, refreshing it when the
// access token has expired. Returns ErrNoSession when nothing usable is
// stored.
func (m *Manager) Restore(ctx context.Context) error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoSession
		}
		return err
	}

	var session remote.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}

	if !session.Valid() {
		if session.Token.RefreshToken == "" {
			return ErrNoSession
		}
		fresh, err := m.authn.Refresh(ctx, session.Token.RefreshToken)
		if err != nil {
			return err
		}
		m.install(fresh)
		return nil
	}

	m.install(&session)
	return nil
}

// AdoptSession installs a session obtained out of band (the platform
// provider sign-in flow) as the current one. The returned error reports
// a failed write of the session file; the in-memory session is installed
// regardless.
func (m *Manager) AdoptSession(session *remote.Session) error {
	if session == nil {
		return ErrNoSession
	}
	return m.install(session)
}

// Session returns the current session, or nil when signed out.
func (m *Manager) Session() *remote.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// UserID returns the signed-in user's id. Implements store.SessionSource.
func (m *Manager) UserID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return "", false
	}
	return m.session.User.ID, true
}

// AccessToken returns the current access token, or false when signed out.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return "", false
	}
	return m.session.Token.AccessToken, true
}

// OnChange registers a hook fired with the new session (nil on sign-out)
// whenever the session changes. The returned function removes the hook
// and is safe to call more than once.
func (m *Manager) OnChange(fn func(*remote.Session)) func() {
	m.mu.Lock()
	id := m.nextHook
	m.nextHook++
	m.hooks[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.hooks, id)
			m.mu.Unlock()
		})
	}
}

// install swaps the session, persists it when non-nil, and fires hooks.
// Returns the persistence error, if any; callers that treat a failed
// write as non-fatal can ignore it, the failure is logged either way.
func (m *Manager) install(session *remote.Session) error {
	m.mu.Lock()
	m.session = session
	fns := make([]func(*remote.Session), 0, len(m.hooks))
	for _, fn := range m.hooks {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	var saveErr error
	if session != nil {
		if saveErr = m.save(session); saveErr != nil {
			m.logger.Printf("auth: save session: %v", saveErr)
		}
	}

	for _, fn := range fns {
		fn(session)
	}
	return saveErr
}

// save writes the session file with mode 0600.
func (m *Manager) save(session *remote.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0600)
}
