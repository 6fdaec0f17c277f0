package testutil

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskflow/internal/remote"
)

// Auth sentinels for assertions.
var (
	ErrBadCredentials = errors.New("invalid login credentials")
	ErrUserExists     = errors.New("user already registered")
	ErrBadRefresh     = errors.New("invalid refresh token")
)

// StaticSession is a fixed session source for store tests.
type StaticSession struct {
	ID string
}

// UserID implements store.SessionSource.
func (s StaticSession) UserID() (string, bool) {
	return s.ID, s.ID != ""
}

// StaticSessionFor builds a standalone valid session for tests that
// install one directly, bypassing a sign-in flow.
func StaticSessionFor(email string) *remote.Session {
	return &remote.Session{
		Token: oauth2.Token{
			AccessToken:  uuid.NewString(),
			TokenType:    "bearer",
			RefreshToken: uuid.NewString(),
			Expiry:       time.Now().Add(time.Hour),
		},
		User: remote.User{ID: uuid.NewString(), Email: email},
	}
}

// AddUser registers a user and returns its id.
func (f *FakeRemote) AddUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.users[email] = fakeUser{id: id, password: password}
	return id
}

// SignIn implements remote.Authenticator.
func (f *FakeRemote) SignIn(ctx context.Context, email, password string) (*remote.Session, error) {
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok || u.password != password {
		return nil, ErrBadCredentials
	}
	return f.issueLocked(u.id, email), nil
}

// SignUp implements remote.Authenticator. Under ConfirmEmail the session
// is withheld.
func (f *FakeRemote) SignUp(ctx context.Context, email, password string) (*remote.Session, *remote.User, error) {
	if f.SignUpErr != nil {
		return nil, nil, f.SignUpErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return nil, nil, ErrUserExists
	}
	id := uuid.NewString()
	f.users[email] = fakeUser{id: id, password: password}

	if f.ConfirmEmail {
		return nil, &remote.User{ID: id, Email: email}, nil
	}
	session := f.issueLocked(id, email)
	return session, &session.User, nil
}

// Refresh implements remote.Authenticator.
func (f *FakeRemote) Refresh(ctx context.Context, refreshToken string) (*remote.Session, error) {
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.byToken[refreshToken]
	if !ok {
		return nil, ErrBadRefresh
	}
	delete(f.byToken, refreshToken)

	var email string
	for e, u := range f.users {
		if u.id == userID {
			email = e
			break
		}
	}
	return f.issueLocked(userID, email), nil
}

// SignOut implements remote.Authenticator.
func (f *FakeRemote) SignOut(ctx context.Context, accessToken string) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byToken, accessToken)
	return nil
}

// issueLocked mints a session. Both tokens are registered so Refresh and
// SignOut can resolve them. Callers hold f.mu.
func (f *FakeRemote) issueLocked(userID, email string) *remote.Session {
	now := time.Now()
	confirmed := now
	session := &remote.Session{
		Token: oauth2.Token{
			AccessToken:  uuid.NewString(),
			TokenType:    "bearer",
			RefreshToken: uuid.NewString(),
			Expiry:       now.Add(time.Hour),
		},
		User: remote.User{ID: userID, Email: email, EmailConfirmedAt: &confirmed},
	}
	f.byToken[session.Token.AccessToken] = userID
	f.byToken[session.Token.RefreshToken] = userID
	return session
}
