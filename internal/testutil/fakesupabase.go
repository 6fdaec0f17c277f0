package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// FakeSupabase is a minimal in-process stand-in for the hosted backend's
// REST and auth surface, for exercising the supabase client without a
// network. Rows are schemaless maps keyed by table and id.
type FakeSupabase struct {
	Server *httptest.Server

	// OmitUser drops the user object and expires_in from token
	// responses, forcing clients onto the JWT-claims fallback.
	OmitUser bool

	mu     sync.Mutex
	rows   map[string]map[string]map[string]any
	users  map[string]fakeUser
	tokens map[string]string // refresh token -> user id
}

// NewFakeSupabase starts the fake server. Callers must Close it.
func NewFakeSupabase() *FakeSupabase {
	f := &FakeSupabase{
		rows:   make(map[string]map[string]map[string]any),
		users:  make(map[string]fakeUser),
		tokens: make(map[string]string),
	}

	r := mux.NewRouter()
	r.HandleFunc("/rest/v1/{table}", f.handleSelect).Methods(http.MethodGet)
	r.HandleFunc("/rest/v1/{table}", f.handleInsert).Methods(http.MethodPost)
	r.HandleFunc("/rest/v1/{table}", f.handlePatch).Methods(http.MethodPatch)
	r.HandleFunc("/rest/v1/{table}", f.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/auth/v1/token", f.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/signup", f.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/logout", f.handleLogout).Methods(http.MethodPost)

	f.Server = httptest.NewServer(r)
	return f
}

// Close shuts the server down.
func (f *FakeSupabase) Close() {
	f.Server.Close()
}

// URL returns the server's base URL.
func (f *FakeSupabase) URL() string {
	return f.Server.URL
}

// Seed stores a row directly, assigning an id when missing, and returns
// the id.
func (f *FakeSupabase) Seed(table string, row map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := row["id"].(string)
	if id == "" {
		id = uuid.NewString()
		row["id"] = id
	}
	f.tableLocked(table)[id] = row
	return id
}

// Row returns a stored row.
func (f *FakeSupabase) Row(table, id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.tableLocked(table)[id]
	return row, ok
}

// RegisterUser adds a user for the auth endpoints and returns its id.
func (f *FakeSupabase) RegisterUser(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.users[email] = fakeUser{id: id, password: password}
	return id
}

func (f *FakeSupabase) tableLocked(table string) map[string]map[string]any {
	if f.rows[table] == nil {
		f.rows[table] = make(map[string]map[string]any)
	}
	return f.rows[table]
}

// match applies PostgREST-style eq filters from the query string.
func match(row map[string]any, query map[string][]string) bool {
	for col, vals := range query {
		switch col {
		case "select", "order", "on_conflict":
			continue
		}
		for _, v := range vals {
			want, ok := strings.CutPrefix(v, "eq.")
			if !ok {
				continue
			}
			got, _ := row[col].(string)
			if got != want {
				return false
			}
		}
	}
	return true
}

func (f *FakeSupabase) handleSelect(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	f.mu.Lock()
	var out []map[string]any
	for _, row := range f.tableLocked(table) {
		if match(row, r.URL.Query()) {
			out = append(out, row)
		}
	}
	f.mu.Unlock()

	if strings.HasPrefix(r.URL.Query().Get("order"), "sort_order") {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := out[i]["sort_order"].(float64)
			b, _ := out[j]["sort_order"].(float64)
			return a < b
		})
	}
	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeSupabase) handleInsert(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	upsert := strings.Contains(r.Header.Get("Prefer"), "merge-duplicates")

	var rows []map[string]any
	body, _ := readBody(r)
	switch v := body.(type) {
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
	case map[string]any:
		rows = append(rows, v)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	f.mu.Lock()
	stored := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		id, _ := row["id"].(string)
		if id != "" && upsert {
			if existing, ok := f.tableLocked(table)[id]; ok {
				for k, v := range row {
					existing[k] = v
				}
				existing["updated_at"] = now
				stored = append(stored, existing)
				continue
			}
		}
		// Upserts may also conflict on a keyed column (user_settings).
		if conflict := r.URL.Query().Get("on_conflict"); upsert && conflict != "" {
			if existing := f.findByLocked(table, conflict, row[conflict]); existing != nil {
				for k, v := range row {
					existing[k] = v
				}
				existing["updated_at"] = now
				stored = append(stored, existing)
				continue
			}
		}
		if id == "" {
			id = uuid.NewString()
			row["id"] = id
		}
		row["created_at"] = now
		row["updated_at"] = now
		f.tableLocked(table)[id] = row
		stored = append(stored, row)
	}
	f.mu.Unlock()

	if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
		writeJSON(w, http.StatusCreated, stored)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (f *FakeSupabase) handlePatch(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	body, _ := readBody(r)
	changes, ok := body.(map[string]any)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
		return
	}

	f.mu.Lock()
	var out []map[string]any
	for _, row := range f.tableLocked(table) {
		if match(row, r.URL.Query()) {
			for k, v := range changes {
				row[k] = v
			}
			row["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)
			out = append(out, row)
		}
	}
	f.mu.Unlock()

	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeSupabase) handleDelete(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	f.mu.Lock()
	var out []map[string]any
	for id, row := range f.tableLocked(table) {
		if match(row, r.URL.Query()) {
			delete(f.tableLocked(table), id)
			out = append(out, row)
		}
	}
	f.mu.Unlock()

	if out == nil {
		out = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeSupabase) handleToken(w http.ResponseWriter, r *http.Request) {
	body, _ := readBody(r)
	req, _ := body.(map[string]any)

	switch r.URL.Query().Get("grant_type") {
	case "password":
		email, _ := req["email"].(string)
		password, _ := req["password"].(string)
		f.mu.Lock()
		u, ok := f.users[email]
		f.mu.Unlock()
		if !ok || u.password != password {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error_description": "Invalid login credentials"})
			return
		}
		f.writeSession(w, u.id, email)
	case "refresh_token":
		token, _ := req["refresh_token"].(string)
		f.mu.Lock()
		userID, ok := f.tokens[token]
		if ok {
			delete(f.tokens, token)
		}
		var email string
		for e, u := range f.users {
			if u.id == userID {
				email = e
			}
		}
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error_description": "Invalid Refresh Token"})
			return
		}
		f.writeSession(w, userID, email)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error_description": "unsupported grant type"})
	}
}

func (f *FakeSupabase) handleSignup(w http.ResponseWriter, r *http.Request) {
	body, _ := readBody(r)
	req, _ := body.(map[string]any)
	email, _ := req["email"].(string)
	password, _ := req["password"].(string)

	f.mu.Lock()
	if _, ok := f.users[email]; ok {
		f.mu.Unlock()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"msg": "User already registered"})
		return
	}
	id := uuid.NewString()
	f.users[email] = fakeUser{id: id, password: password}
	f.mu.Unlock()

	f.writeSession(w, id, email)
}

func (f *FakeSupabase) handleLogout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// writeSession mints a signed JWT so clients relying on claims still
// resolve identity and expiry when OmitUser strips the rest. The jti
// claim makes every minted token unique even within the same second,
// so a refresh always rotates the access token.
func (f *FakeSupabase) writeSession(w http.ResponseWriter, userID, email string) {
	exp := time.Now().Add(time.Hour)
	claims := jwt.MapClaims{"sub": userID, "email": email, "exp": exp.Unix(), "jti": uuid.NewString()}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fake-supabase-secret"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": err.Error()})
		return
	}
	refresh := uuid.NewString()

	f.mu.Lock()
	f.tokens[refresh] = userID
	f.mu.Unlock()

	resp := map[string]any{
		"access_token":  access,
		"token_type":    "bearer",
		"refresh_token": refresh,
	}
	if !f.OmitUser {
		resp["expires_in"] = int(time.Until(exp).Seconds())
		resp["user"] = map[string]any{"id": userID, "email": email}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeSupabase) findByLocked(table, col string, val any) map[string]any {
	want, _ := val.(string)
	for _, row := range f.tableLocked(table) {
		if got, _ := row[col].(string); got == want && want != "" {
			return row
		}
	}
	return nil
}

func readBody(r *http.Request) (any, error) {
	var v any
	err := json.NewDecoder(r.Body).Decode(&v)
	return v, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
