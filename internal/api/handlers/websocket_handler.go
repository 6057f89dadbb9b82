package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/tasker-be/internal/apperr"
	"github.com/isdelr/tasker-be/internal/models"
	ws "github.com/isdelr/tasker-be/internal/websocket"
)

// SessionResolver resolves a session cookie value to its active user.
type SessionResolver interface {
	CookieName() string
	Authenticate(ctx context.Context, credential string) (models.User, error)
}

// WebSocketHandler upgrades guarded requests to the live task feed of the
// current user. The feed lives only as long as the session it was opened
// with.
type WebSocketHandler struct {
	hub      *ws.Hub
	sessions SessionResolver
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Browser connections are
// accepted only from allowedOrigins; requests without an Origin header are
// always accepted.
func NewWebSocketHandler(hub *ws.Hub, sessions SessionResolver, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &WebSocketHandler{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID, h.sessionCheck(r, user.ID))
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	client.Reply(ws.NewMessage(ws.ActionHello, map[string]int64{"user_id": user.ID}))

	go client.WritePump()
	go client.ReadPump(h.handleIncomingWSMessage)
}

// sessionCheck binds the feed to the credential of the upgrade request, so a
// revoked, rotated or expired session closes it on the next ping tick.
func (h *WebSocketHandler) sessionCheck(r *http.Request, userID int64) ws.SessionCheck {
	if h.sessions == nil {
		return nil
	}
	var credential string
	if cookie, err := r.Cookie(h.sessions.CookieName()); err == nil {
		credential = cookie.Value
	}
	return func(ctx context.Context) error {
		user, err := h.sessions.Authenticate(ctx, credential)
		if err != nil {
			return err
		}
		if user.ID != userID {
			return apperr.ErrUnauthorized
		}
		return nil
	}
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Int64("user_id", client.UserID).Msg("Error decoding websocket message")
		client.Reply(ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case "ping":
		client.Reply(ws.NewMessage(ws.ActionPong, nil))
	default:
		log.Warn().Str("action", msg.Action).Int64("user_id", client.UserID).Msg("Unknown websocket action received")
		client.Reply(ws.NewErrorMessage("Unknown action: " + msg.Action))
	}
}
