package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"taskflow/internal/remote"
)

// authResponse is the GoTrue token/signup response. Signup under a
// confirm-email policy returns the bare user fields at the top level
// with no tokens.
type authResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         *remote.User `json:"user"`

	// Top-level user fields on confirm-email signup responses.
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

// SignIn implements remote.Authenticator via the password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (*remote.Session, error) {
	resp, err := c.authPost(ctx, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, err
	}
	return c.sessionFrom(resp)
}

// SignUp implements remote.Authenticator. When the backend requires
// email confirmation the response carries a user but no tokens; the
// session is then nil and the caller must ask the user to confirm out of
// band.
func (c *Client) SignUp(ctx context.Context, email, password string) (*remote.Session, *remote.User, error) {
	resp, err := c.authPost(ctx, "/auth/v1/signup", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	if err != nil {
		return nil, nil, err
	}

	if resp.AccessToken == "" {
		user := resp.User
		if user == nil {
			user = &remote.User{ID: resp.ID, Email: resp.Email, EmailConfirmedAt: resp.EmailConfirmedAt}
		}
		return nil, user, nil
	}

	session, err := c.sessionFrom(resp)
	if err != nil {
		return nil, nil, err
	}
	return session, &session.User, nil
}

// Refresh implements remote.Authenticator via the refresh-token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*remote.Session, error) {
	resp, err := c.authPost(ctx, "/auth/v1/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, "")
	if err != nil {
		return nil, err
	}
	return c.sessionFrom(resp)
}

// SignOut implements remote.Authenticator, revoking the session behind
// the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.authPost(ctx, "/auth/v1/logout", struct{}{}, accessToken)
	return err
}

// ProviderAuthURL builds the authorize URL for a third-party platform
// sign-in (e.g. apple) using PKCE. verifier comes from
// oauth2.GenerateVerifier; the code delivered to redirectURL is
// completed with ExchangeCode.
func (c *Client) ProviderAuthURL(provider, redirectURL, verifier string) string {
	cfg := &oauth2.Config{
		Endpoint:    oauth2.Endpoint{AuthURL: c.baseURL + "/auth/v1/authorize"},
		RedirectURL: redirectURL,
	}
	return cfg.AuthCodeURL("",
		oauth2.SetAuthURLParam("provider", provider),
		oauth2.S256ChallengeOption(verifier),
	)
}

// ExchangeCode completes a PKCE provider sign-in, turning the callback
// code into a session.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*remote.Session, error) {
	resp, err := c.authPost(ctx, "/auth/v1/token?grant_type=pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}, "")
	if err != nil {
		return nil, err
	}
	return c.sessionFrom(resp)
}

// sessionFrom converts a token response into a session. Missing expiry
// or user identity falls back to the access token's JWT claims.
func (c *Client) sessionFrom(resp *authResponse) (*remote.Session, error) {
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("auth response carried no access token")
	}

	token := oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
	}
	if resp.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	var user remote.User
	if resp.User != nil {
		user = *resp.User
	}

	if token.Expiry.IsZero() || user.ID == "" {
		claims := jwt.MapClaims{}
		// The signature is the server's concern; only the claims matter
		// here.
		if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err == nil {
			if user.ID == "" {
				if sub, err := claims.GetSubject(); err == nil {
					user.ID = sub
				}
			}
			if token.Expiry.IsZero() {
				if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
					token.Expiry = exp.Time
				}
			}
		}
	}

	if user.ID == "" {
		return nil, fmt.Errorf("auth response carried no user identity")
	}

	return &remote.Session{Token: token, User: user}, nil
}

// authPost performs one GoTrue call. bearer overrides the default anon
// bearer when set.
func (c *Client) authPost(ctx context.Context, path string, body any, bearer string) (*authResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := parseErrorMessage(body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("auth: %s (status %d)", msg, resp.StatusCode)
	}

	out := &authResponse{}
	if resp.StatusCode == http.StatusNoContent {
		return out, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return out, nil
}
