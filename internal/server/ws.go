package server

import (
	"errors"
	"net/http"

	"termchat/internal/chat"
	"termchat/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The terminal client is not a browser; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsHandler upgrades the connection and pumps frames into the dispatcher.
func wsHandler(hub *chat.Hub, dispatcher *chat.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
			return
		}

		conn := chat.NewConn(ws)
		hub.Register(conn)
		defer func() {
			hub.Unregister(conn)
			_ = conn.Close()
		}()

		ctx := c.Request.Context()
		for {
			text, err := conn.ReadText()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					logger.Debug(ctx, "websocket read ended", zap.Error(err))
				}
				return
			}
			dispatcher.Handle(ctx, conn, text)
		}
	}
}
