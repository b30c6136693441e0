package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chatter-server/internal/events"
	"chatter-server/internal/middleware"
	"chatter-server/internal/transport/httpdto"
	"chatter-server/pkg/logger"
)

// clientFrame is what connected clients send: room management only. All
// domain writes go through the HTTP API; the socket is a one-way feed
// plus subscription control.
type clientFrame struct {
	Action    string `json:"action"`
	ProjectID string `json:"project_id"`
}

type Handler struct {
	verifier   *middleware.TokenVerifier
	authorizer *ChannelAuthorizer
	hub        *Hub
	log        *logger.Logger
}

func NewHandler(verifier *middleware.TokenVerifier, authorizer *ChannelAuthorizer, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{verifier: verifier, authorizer: authorizer, hub: hub, log: log}
}

// Connect upgrades the request and serves the subscription loop until
// the peer goes away. Browsers cannot set headers on websocket
// handshakes, so the token rides in the query string.
func (h *Handler) Connect(c *gin.Context) {
	userID, err := h.verifier.Verify(c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	// Every connection hears its own notifications without asking.
	h.hub.Subscribe(client, events.ChannelPrefixUser+userID.String())

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	_ = conn.SetReadDeadline(time.Now().Add(readWait))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		h.handleFrame(c.Request.Context(), client, payload)
	}

	h.hub.Unregister(client)
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, payload []byte) {
	var frame clientFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return
	}
	if frame.ProjectID == "" {
		return
	}
	channel := events.ChannelPrefixProject + frame.ProjectID

	switch frame.Action {
	case "subscribe":
		ok, err := h.authorizer.CanSubscribe(ctx, client.UserID, channel)
		if err != nil {
			h.log.Errorf("ws: authorize %s: %v", channel, err)
			return
		}
		if !ok {
			return
		}
		h.hub.Subscribe(client, channel)
	case "unsubscribe":
		h.hub.Unsubscribe(client, channel)
	}
}
