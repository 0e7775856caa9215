package agrivaani

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS middleware for the rest of
		// the API; WS clients include non-browser callers.
		return true
	},
}

// handleWebSocket serves the streaming pipeline over a WebSocket. The first
// text frame from the client is a StreamRequest; events are written back as
// JSON text frames using the same shapes as the SSE endpoint. The
// connection closes after the terminal event.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req StreamRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(ErrorEvent("Invalid request"))
		return
	}

	sink := &wsSink{conn: conn}
	s.pipeline.Stream(r.Context(), req, sink)
}

// wsSink writes stream events as WebSocket text frames. gorilla/websocket
// allows one concurrent writer, so writes are serialized.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(event StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(event)
}
