package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"parimarket/internal/broadcast"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades clients onto the resolution broadcast hub.
type WSHandler struct {
	Hub    *broadcast.Hub
	Logger *zap.Logger
}

func (h *WSHandler) Register(r *gin.Engine) {
	r.GET("/ws", h.serve)
}

func (h *WSHandler) serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}
	h.Hub.HandleConn(conn)
}
