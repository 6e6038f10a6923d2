package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWebSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(testMux(t, nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) WebSocketAnalyzeResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp WebSocketAnalyzeResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestWebSocketAnalyze_StreamsProgressThenResult(t *testing.T) {
	conn := dialWebSocket(t)

	req := WebSocketAnalyzeRequest{Rooms: json.RawMessage(roomsJSON)}
	require.NoError(t, conn.WriteJSON(req))

	var stages []string
	for {
		resp := readResponse(t, conn)
		assert.Equal(t, "analyze", resp.Type)
		assert.NotEmpty(t, resp.RequestID)

		switch resp.Status {
		case "processing":
			stages = append(stages, resp.Stage)
		case "completed":
			require.NotNil(t, resp.Result)
			assert.Len(t, resp.Result.Rooms, 2)
			assert.Contains(t, stages, "detect")
			assert.Contains(t, stages, "layout")
			return
		default:
			t.Fatalf("unexpected status %q: %s", resp.Status, resp.Error)
		}
	}
}

func TestWebSocketAnalyze_InvalidJSON(t *testing.T) {
	conn := dialWebSocket(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "invalid request")
}

func TestWebSocketAnalyze_InvalidRooms(t *testing.T) {
	conn := dialWebSocket(t)
	req := WebSocketAnalyzeRequest{
		Rooms: json.RawMessage(`{"rooms": [{"id": "", "name": "x"}]}`),
	}
	require.NoError(t, conn.WriteJSON(req))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "rooms")
}

func TestWebSocketAnalyze_InvalidImage(t *testing.T) {
	conn := dialWebSocket(t)
	req := WebSocketAnalyzeRequest{
		Rooms: json.RawMessage(roomsJSON),
		Image: []byte("not an image"),
	}
	require.NoError(t, conn.WriteJSON(req))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "image")
}

func TestWebSocketAnalyze_MultipleRequestsOneConnection(t *testing.T) {
	conn := dialWebSocket(t)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(WebSocketAnalyzeRequest{Rooms: json.RawMessage(roomsJSON)}))
		for {
			resp := readResponse(t, conn)
			if resp.Status == "completed" {
				break
			}
			require.Equal(t, "processing", resp.Status)
		}
	}
}
