package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/savoryhq/savory-backend/internal/middleware"
	"github.com/savoryhq/savory-backend/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the router; the handshake accepts all
		return true
	},
}

type FeedController struct {
	hub *websocket.Hub
}

func NewFeedController(hub *websocket.Hub) *FeedController {
	return &FeedController{hub: hub}
}

// Feed handles GET /api/v1/feed, upgrading the connection to a live
// activity stream.
func (ctrl *FeedController) Feed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, _ := middleware.GetUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade feed connection", err)
		return
	}

	client := websocket.NewClient(ctrl.hub, conn, userID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
