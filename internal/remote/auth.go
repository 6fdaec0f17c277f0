package remote

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// User is the authenticated identity as reported by the backend.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// Session is an authenticated backend session. Token carries the access
// and refresh tokens with expiry; Valid follows oauth2's expiry check.
type Session struct {
	Token oauth2.Token `json:"token"`
	User  User         `json:"user"`
}

// Valid reports whether the session's access token is present and not
// expired.
func (s *Session) Valid() bool {
	return s != nil && s.Token.Valid()
}

// Authenticator defines the auth operations of the backend.
type Authenticator interface {
	// SignIn performs an email/password sign-in.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new user. Depending on backend policy the
	// returned session may be nil while the user is non-nil; the caller
	// must then ask the user to confirm their email out of band.
	SignUp(ctx context.Context, email, password string) (*Session, *User, error)

	// Refresh exchanges a refresh token for a fresh session.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut revokes the session behind the given access token.
	SignOut(ctx context.Context, accessToken string) error
}
