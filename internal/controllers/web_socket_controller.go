package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/middleware"
	"husaride/internal/realtime"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	hub    *realtime.Hub
	issuer *auth.Issuer
}

func NewWebSocketController(hub *realtime.Hub, issuer *auth.Issuer) *WebSocketController {
	return &WebSocketController{hub: hub, issuer: issuer}
}

// tokenFor looks at ?token= first, since browsers cannot set headers on a
// websocket handshake, then at the usual places.
func tokenFor(c *gin.Context) string {
	if tok := c.Query("token"); tok != "" {
		return tok
	}
	for _, name := range []string{middleware.AdminCookie, middleware.DriverCookie, middleware.PassengerCookie} {
		if tok := middleware.TokenFromRequest(c, name); tok != "" {
			return tok
		}
	}
	return ""
}

// HandleRideFeed upgrades to a websocket that streams ride events visible
// to the caller.
func (w *WebSocketController) HandleRideFeed(c *gin.Context) {
	tok := tokenFor(c)
	if tok == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied. No token provided."})
		return
	}
	id, err := w.issuer.Verify(tok)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id.UserID).Error("Failed to upgrade to websocket")
		return
	}
	w.hub.Serve(conn, id)
}
