package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/pkg/util"
)

// Context keys for device information
const (
	DeviceIDKey = "device_id"
)

// DeviceTokenHeader carries a freshly issued device token back to the client.
const DeviceTokenHeader = "X-Device-Token"

// DeviceMiddleware binds each request to a device session through a signed token.
// A device is what the engine persists identity and favorites against.
type DeviceMiddleware struct {
	jwtSecret string
	expiry    time.Duration
}

func NewDeviceMiddleware(jwtSecret string, expiry time.Duration) *DeviceMiddleware {
	return &DeviceMiddleware{
		jwtSecret: jwtSecret,
		expiry:    expiry,
	}
}

// Identify resolves the device from the bearer token, or from the "token" query
// parameter for websocket upgrades. Requests without a token get a new device id
// and its token in the X-Device-Token response header.
func (m *DeviceMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractToken(c)
		if !ok {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "认证格式不正确")
			c.Abort()
			return
		}

		if token == "" {
			deviceID, issued, err := m.issue()
			if err != nil {
				log.Error("Failed to issue device token", err)
				apperrors.InternalError(c, "")
				c.Abort()
				return
			}
			c.Header(DeviceTokenHeader, issued)
			c.Set(DeviceIDKey, deviceID)
			log.Info("Issued new device token", map[string]interface{}{
				"device_id": deviceID,
			})
			c.Next()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Device token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "设备凭证已过期")
			} else {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "无效的设备凭证")
			}
			c.Abort()
			return
		}

		c.Set(DeviceIDKey, claims.DeviceID)
		log.Debug("Device identified", map[string]interface{}{
			"device_id": claims.DeviceID,
		})

		c.Next()
	}
}

func (m *DeviceMiddleware) issue() (string, string, error) {
	deviceID := "dev-" + uuid.NewString()
	token, err := util.GenerateDeviceToken(deviceID, m.jwtSecret, m.expiry)
	if err != nil {
		return "", "", err
	}
	return deviceID, token, nil
}

// extractToken returns ok=false only for a malformed Authorization header.
func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token"), true
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetDeviceID extracts the device id from context
func GetDeviceID(c *gin.Context) (string, bool) {
	deviceID, exists := c.Get(DeviceIDKey)
	if !exists {
		return "", false
	}
	id, ok := deviceID.(string)
	return id, ok && id != ""
}
