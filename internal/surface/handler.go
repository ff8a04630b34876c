package surface

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

// ServeWS returns a handler that upgrades the request and attaches the
// socket to the session named by the "session" query parameter. Without
// one, a new session is started. origins are full origins such as
// "http://localhost:5173".
func (h *Hub) ServeWS(origins []string) http.HandlerFunc {
	patterns := originPatterns(origins)
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = typeid.NewSessionID()
		} else if err := typeid.Validate(sessionID, typeid.PrefixSession); err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: patterns,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn, sessionID, uuid.New().String())
		h.Register(client)

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}

// originPatterns reduces origins to the host patterns the websocket
// library matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
