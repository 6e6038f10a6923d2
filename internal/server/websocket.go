package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to configured origins once the frontend host is fixed.
		return true
	},
}

// WebSocketAnalyzeRequest is one analysis request over WebSocket. Image is
// the raw file bytes, base64-encoded by encoding/json.
type WebSocketAnalyzeRequest struct {
	Rooms json.RawMessage `json:"rooms"`
	Image []byte          `json:"image,omitempty"`
}

// WebSocketAnalyzeResponse streams analysis progress and the final result.
type WebSocketAnalyzeResponse struct {
	Type      string                     `json:"type"`
	Status    string                     `json:"status"` // "processing", "completed", "error"
	Stage     string                     `json:"stage,omitempty"`
	Result    *floorplan.FloorplanResult `json:"result,omitempty"`
	Error     string                     `json:"error,omitempty"`
	RequestID string                     `json:"request_id,omitempty"`
}

// analyzeWebSocketHandler handles WebSocket connections for analysis with
// live stage progress.
func (s *Server) analyzeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("websocket connection established", "remote_addr", r.RemoteAddr)

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket read failed", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		if messageType == websocket.TextMessage {
			s.handleWebSocketAnalyze(r, conn, data)
		}
	}
}

// handleWebSocketAnalyze runs one analysis, streaming a message per
// pipeline stage.
func (s *Server) handleWebSocketAnalyze(r *http.Request, conn *websocket.Conn, data []byte) {
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	var wsReq WebSocketAnalyzeRequest
	if err := json.Unmarshal(data, &wsReq); err != nil {
		s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
			Type: "analyze", Status: "error", RequestID: requestID,
			Error: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	req, err := floorplan.ParseRequest(wsReq.Rooms)
	if err != nil {
		s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
			Type: "analyze", Status: "error", RequestID: requestID,
			Error: fmt.Sprintf("invalid rooms data: %v", err),
		})
		return
	}

	var img image.Image
	if len(wsReq.Image) > 0 {
		img, _, err = image.Decode(bytes.NewReader(wsReq.Image))
		if err != nil {
			s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
				Type: "analyze", Status: "error", RequestID: requestID,
				Error: fmt.Sprintf("invalid image: %v", err),
			})
			return
		}
	}

	// A per-request pipeline binds the progress callback to this
	// connection without sharing state across requests.
	pl, err := pipeline.NewBuilder().
		WithConfig(s.pipelineCfg).
		WithProgress(func(stage string) {
			s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
				Type: "analyze", Status: "processing", Stage: stage, RequestID: requestID,
			})
		}).
		Build()
	if err != nil {
		s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
			Type: "analyze", Status: "error", RequestID: requestID,
			Error: fmt.Sprintf("pipeline init failed: %v", err),
		})
		return
	}

	result, err := pl.Analyze(r.Context(), img, req)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("error").Inc()
		s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
			Type: "analyze", Status: "error", RequestID: requestID,
			Error: fmt.Sprintf("analysis failed: %v", err),
		})
		return
	}
	analyzeRequestsTotal.WithLabelValues("ok").Inc()
	roomsPlaced.Observe(float64(len(result.Rooms)))

	s.sendWebSocketResponse(conn, WebSocketAnalyzeResponse{
		Type: "analyze", Status: "completed", Result: result, RequestID: requestID,
	})
}

// sendWebSocketResponse marshals and writes one response message.
func (s *Server) sendWebSocketResponse(conn *websocket.Conn, resp WebSocketAnalyzeResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("marshal websocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("write websocket response", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
