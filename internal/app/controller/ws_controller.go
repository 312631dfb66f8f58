package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/must-canteen/internal/app/service"
	"github.com/ikkim/must-canteen/internal/middleware"
	ws "github.com/ikkim/must-canteen/internal/websocket"
)

// WSController upgrades a device to the push channel for notices and navigation.
type WSController struct {
	sessions *service.SessionManager
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSController(sessions *service.SessionManager, hub *ws.Hub, allowedOrigins []string) *WSController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WSController{
		sessions: sessions,
		hub:      hub,
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

// Connect opens the device's push channel. The token travels as ?token= and is
// never logged.
// GET /api/v1/ws
func (ctrl *WSController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, s.DeviceID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"device_id": s.DeviceID,
	})
}
