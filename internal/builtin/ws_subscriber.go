package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"

	"github.com/sentineld/sentinel/internal/alert"
)

// WebSocketSubscriber is the async wire-level Subscriber example named in
// spec.md §6: it dials a remote WebSocket endpoint lazily (and again after
// a failed write drops the connection) and writes every alert as a JSON
// text message, grounded on the teacher's use
// of github.com/coder/websocket in internal/api/handlers/websocket.go
// (there used server-side to push events out; here used client-side to
// push alerts to a remote sink).
type WebSocketSubscriber struct {
	URL string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebSocketSubscriber builds a subscriber that will dial url on its
// first Notify call.
func NewWebSocketSubscriber(url string) *WebSocketSubscriber {
	return &WebSocketSubscriber{URL: url}
}

type wireAlert struct {
	Header      string         `json:"header"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	SourceType  string         `json:"source_type"`
	Timestamp   string         `json:"timestamp"`
	Data        map[string]any `json:"data"`
}

func (w *WebSocketSubscriber) Notify(ctx context.Context, a alert.Alert) error {
	conn, err := w.connection(ctx)
	if err != nil {
		return fmt.Errorf("builtin: websocket subscriber: %w", err)
	}

	payload, err := json.Marshal(wireAlert{
		Header:      a.Header,
		Description: a.Description,
		Source:      a.Source,
		SourceType:  a.SourceType,
		Timestamp:   a.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Data:        a.Data,
	})
	if err != nil {
		return fmt.Errorf("builtin: websocket subscriber: encode: %w", err)
	}

	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()
		return fmt.Errorf("builtin: websocket subscriber: write: %w", err)
	}
	return nil
}

func (w *WebSocketSubscriber) connection(ctx context.Context) (*websocket.Conn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return w.conn, nil
	}
	conn, _, err := websocket.Dial(ctx, w.URL, nil)
	if err != nil {
		return nil, err
	}
	w.conn = conn
	return conn, nil
}

// Close releases the underlying connection, if one was established.
func (w *WebSocketSubscriber) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close(websocket.StatusNormalClosure, "subscriber closed")
	w.conn = nil
	return err
}
