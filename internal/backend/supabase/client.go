// Package supabase implements the remote.Service and remote.Authenticator
// interfaces against a Supabase-compatible backend: PostgREST for CRUD,
// GoTrue for auth, and the realtime websocket for change streams.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/model"
	"taskflow/internal/remote"
)

const (
	// APITimeout is the timeout for REST calls.
	APITimeout = 10 * time.Second
)

// TokenProvider supplies the current access token for authenticated
// calls. Implemented by auth.Manager. When no token is available the
// client falls back to the anon key.
type TokenProvider interface {
	AccessToken() (string, bool)
}

// Client talks to one Supabase project.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	tokens  TokenProvider
}

// New creates a client for the project configured in cfg.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.HasBackend() {
		return nil, config.ErrMissingBackend
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BackendURL, "/"),
		anonKey: cfg.AnonKey,
		http:    &http.Client{},
	}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for
// testing against a local fake server).
func NewWithHTTPClient(baseURL, anonKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    httpClient,
	}
}

// SetTokenProvider wires the session source used for authenticated
// calls. Done after construction because the session manager itself
// needs the client for auth calls.
func (c *Client) SetTokenProvider(p TokenProvider) {
	c.tokens = p
}

// SelectTasks implements remote.Service.
func (c *Client) SelectTasks(ctx context.Context, userID string) ([]model.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "sort_order.asc")

	var tasks []model.Task
	if err := c.rest(ctx, http.MethodGet, "tasks", q, nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// InsertTask implements remote.Service. The backend assigns id and
// timestamps; the returned row is canonical.
func (c *Client) InsertTask(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []model.Task
	if err := c.rest(ctx, http.MethodPost, "tasks", nil, headers, draft, &rows); err != nil {
		return model.Task{}, err
	}
	if len(rows) == 0 {
		return model.Task{}, remote.ErrNotFound
	}
	return rows[0], nil
}

// UpdateTask implements remote.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	return c.patchByID(ctx, "tasks", id, patch.Changes())
}

// DeleteTask implements remote.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "tasks", id)
}

// SelectLists implements remote.Service.
func (c *Client) SelectLists(ctx context.Context, userID string) ([]model.List, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "sort_order.asc")

	var lists []model.List
	if err := c.rest(ctx, http.MethodGet, "lists", q, nil, nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// InsertList implements remote.Service.
func (c *Client) InsertList(ctx context.Context, draft model.ListDraft) (model.List, error) {
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []model.List
	if err := c.rest(ctx, http.MethodPost, "lists", nil, headers, draft, &rows); err != nil {
		return model.List{}, err
	}
	if len(rows) == 0 {
		return model.List{}, remote.ErrNotFound
	}
	return rows[0], nil
}

// UpdateList implements remote.Service.
func (c *Client) UpdateList(ctx context.Context, id string, patch model.ListPatch) error {
	return c.patchByID(ctx, "lists", id, patch.Changes())
}

// DeleteList implements remote.Service. The schema's ON DELETE SET NULL
// detaches the list's tasks server-side.
func (c *Client) DeleteList(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "lists", id)
}

// UpsertListPositions implements remote.Service as a single batch upsert.
func (c *Client) UpsertListPositions(ctx context.Context, positions []model.ListPosition) error {
	headers := map[string]string{"Prefer": "resolution=merge-duplicates"}
	return c.rest(ctx, http.MethodPost, "lists", nil, headers, positions, nil)
}

// UserSettings implements remote.Service.
func (c *Client) UserSettings(ctx context.Context, userID string) (model.UserSettings, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)

	var rows []model.UserSettings
	if err := c.rest(ctx, http.MethodGet, "user_settings", q, nil, nil, &rows); err != nil {
		return model.UserSettings{}, err
	}
	if len(rows) == 0 {
		return model.UserSettings{}, remote.ErrNotFound
	}
	return rows[0], nil
}

// UpsertUserSettings implements remote.Service.
func (c *Client) UpsertUserSettings(ctx context.Context, userID string, patch model.SettingsPatch) (model.UserSettings, error) {
	q := url.Values{}
	q.Set("on_conflict", "user_id")
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"}

	body := patch.Changes()
	body["user_id"] = userID

	var rows []model.UserSettings
	if err := c.rest(ctx, http.MethodPost, "user_settings", q, headers, body, &rows); err != nil {
		return model.UserSettings{}, err
	}
	if len(rows) == 0 {
		return model.UserSettings{}, remote.ErrNotFound
	}
	return rows[0], nil
}

// patchByID sends a partial update for one row and fails with
// remote.ErrNotFound when no row matched.
func (c *Client) patchByID(ctx context.Context, table, id string, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	q := url.Values{}
	q.Set("id", "eq."+id)
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []json.RawMessage
	if err := c.rest(ctx, http.MethodPatch, table, q, headers, changes, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return remote.ErrNotFound
	}
	return nil
}

// deleteByID removes one row and fails with remote.ErrNotFound when no
// row matched.
func (c *Client) deleteByID(ctx context.Context, table, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []json.RawMessage
	if err := c.rest(ctx, http.MethodDelete, table, q, headers, nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return remote.ErrNotFound
	}
	return nil
}

// rest performs one PostgREST call. out may be nil for calls whose body
// is irrelevant.
func (c *Client) rest(ctx context.Context, method, table string, query url.Values, headers map[string]string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// bearerToken returns the user's access token when signed in, otherwise
// the anon key.
func (c *Client) bearerToken() string {
	if c.tokens != nil {
		if token, ok := c.tokens.AccessToken(); ok {
			return token
		}
	}
	return c.anonKey
}

// statusError turns a non-2xx response into a friendly error.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("session expired or unauthorized (run: taskflow login)")
	case http.StatusNotFound:
		return remote.ErrNotFound
	}

	msg := parseErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("backend: %s (status %d)", msg, resp.StatusCode)
}

// parseErrorMessage extracts the message from a PostgREST or GoTrue
// error body.
func parseErrorMessage(body []byte) string {
	var e struct {
		Message  string `json:"message"`
		Msg      string `json:"msg"`
		ErrorMsg string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	switch {
	case e.Message != "":
		return e.Message
	case e.Msg != "":
		return e.Msg
	default:
		return e.ErrorMsg
	}
}

// wrapError translates transport errors into user-friendly ones.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return err
}
