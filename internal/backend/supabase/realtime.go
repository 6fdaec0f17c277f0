package supabase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskflow/internal/model"
	"taskflow/internal/remote"
)

const (
	// heartbeatInterval keeps the realtime socket alive. The server
	// drops channels idle for about a minute.
	heartbeatInterval = 25 * time.Second

	// dialTimeout bounds the websocket handshake.
	dialTimeout = 10 * time.Second
)

// phxMessage is one phoenix-channel frame.
type phxMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// rawChange is the postgres_changes payload shipped inside a frame.
type rawChange struct {
	Type      string          `json:"type"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

// StreamTaskChanges implements remote.Service, opening a change stream
// over the user's task rows.
func (c *Client) StreamTaskChanges(ctx context.Context, userID string) (remote.TaskStream, error) {
	sock, err := c.dialChanges(ctx, "tasks", userID)
	if err != nil {
		return nil, err
	}

	ts := &taskStream{sock: sock, out: make(chan model.TaskChange, 16)}
	go ts.pump()
	return ts, nil
}

// StreamListChanges implements remote.Service for the list collection.
func (c *Client) StreamListChanges(ctx context.Context, userID string) (remote.ListStream, error) {
	sock, err := c.dialChanges(ctx, "lists", userID)
	if err != nil {
		return nil, err
	}

	ls := &listStream{sock: sock, out: make(chan model.ListChange, 16)}
	go ls.pump()
	return ls, nil
}

type taskStream struct {
	sock *socket
	out  chan model.TaskChange
}

func (s *taskStream) Events() <-chan model.TaskChange { return s.out }
func (s *taskStream) Close() error                    { return s.sock.Close() }

func (s *taskStream) pump() {
	defer close(s.out)
	for rc := range s.sock.raw {
		ev := model.TaskChange{Type: model.ChangeType(rc.Type)}
		if len(rc.Record) > 0 {
			var t model.Task
			if err := json.Unmarshal(rc.Record, &t); err != nil {
				continue
			}
			ev.New = &t
		}
		if len(rc.OldRecord) > 0 {
			var t model.Task
			if err := json.Unmarshal(rc.OldRecord, &t); err == nil {
				ev.Old = &t
			}
		}
		s.out <- ev
	}
}

type listStream struct {
	sock *socket
	out  chan model.ListChange
}

func (s *listStream) Events() <-chan model.ListChange { return s.out }
func (s *listStream) Close() error                    { return s.sock.Close() }

func (s *listStream) pump() {
	defer close(s.out)
	for rc := range s.sock.raw {
		ev := model.ListChange{Type: model.ChangeType(rc.Type)}
		if len(rc.Record) > 0 {
			var l model.List
			if err := json.Unmarshal(rc.Record, &l); err != nil {
				continue
			}
			ev.New = &l
		}
		if len(rc.OldRecord) > 0 {
			var l model.List
			if err := json.Unmarshal(rc.OldRecord, &l); err == nil {
				ev.Old = &l
			}
		}
		s.out <- ev
	}
}

// socket owns one realtime websocket with a joined channel. raw is
// closed when the connection dies or Close is called; Close is
// idempotent.
type socket struct {
	conn    *websocket.Conn
	raw     chan rawChange
	done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
}

// dialChanges connects, joins a channel subscribed to the user's rows of
// table, and starts the reader and heartbeat loops.
func (c *Client) dialChanges(ctx context.Context, table, userID string) (*socket, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) +
		"/realtime/v1/websocket?apikey=" + c.anonKey + "&vsn=1.0.0"

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, wrapError(err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &socket{
		conn: conn,
		raw:  make(chan rawChange, 16),
		done: make(chan struct{}),
	}

	topic := "realtime:" + table + ":" + userID
	join := map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]string{{
				"event":  "*",
				"schema": "public",
				"table":  table,
				"filter": "user_id=eq." + userID,
			}},
		},
		"access_token": c.bearerToken(),
	}
	if err := s.send(topic, "phx_join", join); err != nil {
		conn.Close()
		return nil, err
	}

	go s.readLoop()
	go s.heartbeatLoop()
	return s, nil
}

// Close tears down the socket. Safe to call more than once.
func (s *socket) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		s.conn.Close()
	})
	return nil
}

// send writes one frame. Refs are unique per frame; the server echoes
// them in replies.
func (s *socket) send(topic, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := phxMessage{Topic: topic, Event: event, Payload: data, Ref: uuid.NewString()}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *socket) readLoop() {
	defer close(s.raw)
	for {
		var msg phxMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Event != "postgres_changes" {
			// phx_reply, presence, heartbeats: nothing to reconcile.
			continue
		}

		var payload struct {
			Data rawChange `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			continue
		}

		select {
		case s.raw <- payload.Data:
		case <-s.done:
			return
		}
	}
}

func (s *socket) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.send("phoenix", "heartbeat", struct{}{}); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
