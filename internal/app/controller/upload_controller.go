package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/internal/middleware"
	"github.com/ikkim/must-canteen/internal/storage"
)

type UploadController struct {
	sessions *service.SessionManager
	storage  storage.ImageStorage
}

func NewUploadController(sessions *service.SessionManager, storage storage.ImageStorage) *UploadController {
	return &UploadController{
		sessions: sessions,
		storage:  storage,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"` // reviews (default) or avatars
}

// GeneratePresignedURL returns a direct-upload URL for a review photo or avatar.
// Only identities that may write get one.
// POST /api/v1/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presigned URL request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请提供文件名和类型")
		return
	}

	folder := req.Folder
	if folder == "" {
		folder = storage.FolderReviews
	}

	var response *storage.PresignedURLResponse
	err := s.Gate.Require(func() error {
		var err error
		response, err = ctrl.storage.PresignImageUpload(c.Request.Context(), s.DeviceID, folder, req.Filename, req.ContentType)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) || errors.Is(err, storage.ErrUnknownFolder) {
			log.Warn("Rejected upload request", map[string]interface{}{
				"content_type": req.ContentType,
				"folder":       folder,
			})
			apperrors.RespondWithNotices(c, http.StatusBadRequest, apperrors.UploadInvalidFileType, "仅支持 JPEG、PNG、GIF、WEBP 图片", s.DrainNotices())
			return
		}
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			respondError(c, s, err, "upload")
			return
		}
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename": req.Filename,
			"folder":   folder,
		})
		apperrors.RespondWithNotices(c, http.StatusInternalServerError, apperrors.UploadFailed, "上传失败，请重试", s.DrainNotices())
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"folder": folder,
		"key":    response.Key,
	})
	respond(c, s, http.StatusOK, gin.H{
		"upload_url": response.UploadURL,
		"file_url":   response.FileURL,
		"key":        response.Key,
		"expires_at": response.ExpiresAt,
	})
}
