package server

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The REST surface is already wide open for CORS; the chat socket
	// follows the same policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsTurn is one chat exchange over the socket.
type wsTurn struct {
	Reply   string `json:"reply"`
	Stored  bool   `json:"stored"`
	Topic   string `json:"topic,omitempty"`
	Summary string `json:"summary,omitempty"`
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleWS runs the conversation loop over a websocket: one text frame in
// per user turn, one JSON frame back. The connection closing ends the
// session, mirroring end-of-stream on the interactive loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage || len(payload) == 0 {
			continue
		}

		turn, err := s.engine.RunTurn(r.Context(), string(payload))
		if err != nil {
			if writeErr := conn.WriteJSON(wsTurn{Error: err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		out := wsTurn{
			Reply:  turn.Reply,
			Stored: turn.Stored(),
			TxHash: turn.TxHash,
		}
		if turn.Decision.Actionable() {
			out.Topic = turn.Decision.Topic
			out.Summary = turn.Decision.Summary
		}
		if turn.StoreErr != nil {
			out.Error = turn.StoreErr.Error()
		}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
