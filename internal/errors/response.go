package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string      `json:"error"`             // error code (see codes.go)
	Message string      `json:"message"`           // user-facing message
	Notices interface{} `json:"notices,omitempty"` // pending session notices
}

// RespondWithError writes an error body.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondWithNotices writes an error body that also carries the session's pending notices.
func RespondWithNotices(c *gin.Context, statusCode int, errorCode, message string, notices interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
		Notices: notices,
	})
}

// ParseAndRespond classifies err and writes the matching response.
func ParseAndRespond(c *gin.Context, err error, context string, notices interface{}) {
	info := ParseError(err, context)
	RespondWithNotices(c, info.Status, info.Code, info.Message, notices)
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "请先登录"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "没有权限"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "操作太频繁，请稍后再试"
	}
	RespondWithError(c, http.StatusTooManyRequests, InternalRateLimited, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "服务器开小差了，请稍后再试"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}
