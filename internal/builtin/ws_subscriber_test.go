package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentineld/sentinel/internal/alert"
)

func TestWebSocketSubscriber_NotifySendsJSON(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		_, data, err := conn.Read(r.Context())
		if err == nil {
			received <- data
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWebSocketSubscriber(url)
	defer s.Close()

	err := s.Notify(context.Background(), alert.Alert{
		Header: "motion", Description: "person detected", Source: "cam-1",
	})
	require.NoError(t, err)

	select {
	case data := <-received:
		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "motion", got["header"])
		assert.Equal(t, "cam-1", got["source"])
	case <-time.After(time.Second):
		t.Fatal("server never received a message")
	}
}
