package errors

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is the client-facing error shape
type ErrorInfo struct {
	Status  int
	Code    string // see codes.go
	Message string
}

// ParseError maps an engine error to an HTTP status, a code and a user-facing message.
// Sensitive details stay in the logs.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "服务器开小差了",
		}
	}

	var ke *KindError
	if errors.As(err, &ke) {
		return ErrorInfo{
			Status:  statusForKind(ke),
			Code:    ke.code,
			Message: ke.message,
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusServiceUnavailable,
			Code:    InternalGateway,
			Message: "网络异常，请稍后重试",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: "操作失败，请重试",
	}
}

func statusForKind(ke *KindError) int {
	switch ke.kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		if ke.code == AuthGuestReadOnly || ke.code == AuthzForbidden {
			return http.StatusForbidden
		}
		if ke.code == AuthTooManyAttempts {
			return http.StatusTooManyRequests
		}
		if ke.code == AuthEmailAlreadyExists {
			return http.StatusConflict
		}
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindTransientGateway:
		return http.StatusServiceUnavailable
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func getNotFoundMessage(context string) string {
	switch context {
	case "review":
		return "评价不存在"
	case "stall":
		return "档口不存在"
	case "dish":
		return "菜品不存在"
	default:
		return "内容不存在"
	}
}
