package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/internal/middleware"
)

// sessionFor returns the engine session of the requesting device, creating it on
// first use. It writes a 401 when the device middleware did not run.
func sessionFor(c *gin.Context, sessions *service.SessionManager) (*service.Session, bool) {
	deviceID, ok := middleware.GetDeviceID(c)
	if !ok {
		apperrors.Unauthorized(c, "缺少设备凭证")
		return nil, false
	}
	return sessions.Get(deviceID), true
}

// respond writes body plus the notices the operation raised.
func respond(c *gin.Context, s *service.Session, status int, body gin.H) {
	body["notices"] = s.DrainNotices()
	c.JSON(status, body)
}

// respondError classifies err and attaches the pending notices.
func respondError(c *gin.Context, s *service.Session, err error, context string) {
	apperrors.ParseAndRespond(c, err, context, s.DrainNotices())
}
