package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/plateful/platefinder/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	SessionID       string `json:"session_id"`
	Text            string `json:"text"`
	ForceWeb        bool   `json:"force_web"`
	DisableFallback bool   `json:"disable_fallback"`
}

// wsMessage is the outgoing WebSocket message format. Type is "stage",
// "result" or "error".
type wsMessage struct {
	Type   string                 `json:"type"`
	Stage  pipeline.Stage         `json:"stage,omitempty"`
	Result *pipeline.SearchResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// handleSearchWS runs searches over a WebSocket, streaming a "stage"
// message as each pipeline stage starts and a final "result" or "error".
func (s *Server) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sendWS(conn, wsMessage{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.SessionID == "" || req.Text == "" {
			sendWS(conn, wsMessage{Type: "error", Error: "session_id and text are required"})
			continue
		}

		res, err := s.orch.Search(r.Context(), pipeline.Request{
			SessionID:       req.SessionID,
			Text:            req.Text,
			ForceWeb:        req.ForceWeb,
			DisableFallback: req.DisableFallback,
			Progress: func(stage pipeline.Stage) {
				sendWS(conn, wsMessage{Type: "stage", Stage: stage})
			},
		})
		if err != nil {
			sendWS(conn, wsMessage{Type: "error", Error: err.Error()})
			continue
		}
		sendWS(conn, wsMessage{Type: "result", Result: res})
	}
}

func sendWS(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
