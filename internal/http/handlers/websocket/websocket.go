package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/album-notify/internal/events"
	"github.com/princekumarofficial/album-notify/internal/livefeed"
	"github.com/princekumarofficial/album-notify/internal/utils/jwt"
	"github.com/princekumarofficial/album-notify/internal/utils/response"
	wsClient "github.com/princekumarofficial/album-notify/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Any origin may connect; the token authenticates the session
		return true
	},
}

// Session holds what a live connection needs beyond the hub
type Session struct {
	Hub        *wsClient.Hub
	Subscriber livefeed.Subscriber
	Batches    livefeed.BatchDiscarder
	Publisher  events.Publisher
	JWTSecret  string
}

// WebSocketHandler opens a live notification session. The session's feed is
// streamed to the socket, and closing the socket ends the session, dropping
// the user's pending upload batches.
func WebSocketHandler(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		userID, err := jwt.ExtractUserIDFromToken(token, s.JWTSecret)
		if err != nil {
			slog.Warn("WebSocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		consumer := livefeed.NewConsumer(s.Subscriber, s.Batches, s.Publisher, slog.Default())
		client := wsClient.NewClient(conn, userID, s.Hub, consumer.Stop)
		if !s.Hub.RegisterClient(client) {
			conn.Close()
			return
		}

		// The request context ends with this handler; the session outlives it
		if err := consumer.Start(context.Background(), userID); err != nil {
			slog.Error("Failed to start live feed", slog.String("user_id", userID), slog.String("error", err.Error()))
			s.Hub.UnregisterClient(client)
			conn.Close()
			return
		}

		client.Start()

		slog.Info("WebSocket connection established", slog.String("user_id", userID))
	}
}
