package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/glintlabs/glint/internal/domain"
	"github.com/glintlabs/glint/internal/engine"
	"github.com/glintlabs/glint/internal/identity"
	"github.com/glintlabs/glint/internal/ui"
)

// WSHandler runs the explicit event loop for one connection: receive
// event, rerun, write the resulting document back. No hidden control
// flow — every document a client sees corresponds to one message it
// sent (plus the initial rerun on connect).
type WSHandler struct {
	eng           *engine.Engine
	conns         *ConnManager
	allowedOrigin string
	isDev         bool
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(eng *engine.Engine, conns *ConnManager, allowedOrigin string, isDev bool) *WSHandler {
	return &WSHandler{
		eng:           eng,
		conns:         conns,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// hostMessage is the inbound WebSocket message structure.
type hostMessage struct {
	Type  string         `json:"type"`            // "event", "reset", "ping"
	ID    string         `json:"id,omitempty"`    // widget ID for events
	Value any            `json:"value,omitempty"` // widget value
	Click bool           `json:"click,omitempty"` // button press
	Batch map[string]any `json:"batch,omitempty"` // form values on submit
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	slog.Info("Host connection request", "user_id", userID, "tab_id", tabID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.conns.Register(userID, tabID, ws)
	defer h.conns.Unregister(userID, tabID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	rt, err := h.eng.Attach(ctx, userID, tabID)
	if err != nil {
		slog.Error("Failed to attach session", "error", err, "user_id", userID, "tab_id", tabID)
		if writeErr := h.writeJSON(ws, map[string]string{"error": "session_unavailable"}); writeErr != nil {
			slog.Debug("Failed to send session_unavailable error", "error", writeErr)
		}
		return
	}

	// Initial rerun so a fresh or restored tab sees the current document.
	doc := h.eng.HandleEvent(ctx, rt, domain.Event{})
	if err := h.writeDocument(ws, doc); err != nil {
		slog.Warn("Failed to write initial document", "error", err, "user_id", userID)
		return
	}

	h.eventLoop(ctx, ws, rt, userID, tabID)
	slog.Info("Host session ended", "user_id", userID, "tab_id", tabID)
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WSHandler) eventLoop(ctx context.Context, ws *websocket.Conn, rt *engine.Runtime, userID, tabID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg hostMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Discarding malformed host message", "error", err, "user_id", userID)
			continue
		}

		switch msg.Type {
		case "event":
			ev := domain.Event{
				WidgetID: msg.ID,
				Value:    msg.Value,
				Click:    msg.Click,
				Batch:    msg.Batch,
			}
			doc := h.eng.HandleEvent(ctx, rt, ev)
			if err := h.writeDocument(ws, doc); err != nil {
				slog.Warn("Failed to write document", "error", err, "user_id", userID)
				return
			}
		case "reset":
			doc := h.eng.Reset(ctx, rt)
			if err := h.writeDocument(ws, doc); err != nil {
				slog.Warn("Failed to write document after reset", "error", err, "user_id", userID)
				return
			}
		case "ping":
			if err := h.writeJSON(ws, map[string]string{"type": "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		default:
			slog.Debug("Ignoring unknown host message type", "type", msg.Type, "user_id", userID)
		}
	}
}

func (h *WSHandler) writeDocument(ws *websocket.Conn, doc *ui.Document) error {
	return h.writeJSON(ws, map[string]any{
		"type":     "document",
		"document": doc,
	})
}

func (h *WSHandler) writeJSON(ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(context.Background(), websocket.MessageText, data)
}
