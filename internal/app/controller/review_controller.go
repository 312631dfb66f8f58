package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/internal/middleware"
)

type ReviewController struct {
	sessions *service.SessionManager
}

func NewReviewController(sessions *service.SessionManager) *ReviewController {
	return &ReviewController{sessions: sessions}
}

type SubmitReviewRequest struct {
	Appearance int      `json:"appearance"`
	Aroma      int      `json:"aroma"`
	Taste      int      `json:"taste"`
	Comment    string   `json:"comment"`
	Images     []string `json:"images"` // file URLs from the upload API
}

type AppendReviewRequest struct {
	Text string `json:"text"`
}

// ListReviews returns the featured and chronological reviews of a stall or dish
// GET /api/v1/targets/:target_id/reviews
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	view, err := s.Reviews.View(c.Param("target_id"))
	if err != nil {
		respondError(c, s, err, "review")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"reviews": view})
}

// SubmitReview posts a new review on a stall or dish
// POST /api/v1/targets/:target_id/reviews
func (ctrl *ReviewController) SubmitReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid review request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "评价格式不正确")
		return
	}

	dims := model.Dimensions{Appearance: req.Appearance, Aroma: req.Aroma, Taste: req.Taste}
	review, err := s.Reviews.Submit(c.Param("target_id"), dims, req.Comment, req.Images)
	if err != nil {
		respondError(c, s, err, "review")
		return
	}

	log.Info("Review submitted", map[string]interface{}{
		"review_id": review.ID,
		"target_id": c.Param("target_id"),
	})
	respond(c, s, http.StatusCreated, gin.H{"review": review})
}

// LikeReview likes a review once per session
// POST /api/v1/targets/:target_id/reviews/:review_id/like
func (ctrl *ReviewController) LikeReview(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	liked, err := s.Reviews.Like(c.Param("target_id"), c.Param("review_id"))
	if err != nil {
		respondError(c, s, err, "review")
		return
	}
	respond(c, s, http.StatusOK, gin.H{
		"liked":     liked,
		"has_liked": s.Reviews.HasLiked(c.Param("review_id")),
	})
}

// MyReviews lists the logged-in user's reviews, newest first
// GET /api/v1/me/reviews
func (ctrl *ReviewController) MyReviews(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	reviews, err := s.Reviews.MyReviews()
	if err != nil {
		respondError(c, s, err, "review")
		return
	}
	respond(c, s, http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// DeleteReview removes one of the user's own reviews
// DELETE /api/v1/reviews/:review_id
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	deleted, err := s.Reviews.Delete(c.Param("review_id"))
	if err != nil {
		respondError(c, s, err, "review")
		return
	}
	if !deleted {
		apperrors.RespondWithNotices(c, http.StatusNotFound, apperrors.ReviewNotFound, "评价不存在", s.DrainNotices())
		return
	}
	respond(c, s, http.StatusOK, gin.H{"success": true})
}

// AppendReview adds a dated follow-up to one of the user's own reviews
// POST /api/v1/reviews/:review_id/append
func (ctrl *ReviewController) AppendReview(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req AppendReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "追评格式不正确")
		return
	}

	appended, err := s.Reviews.Append(c.Param("review_id"), req.Text)
	if err != nil {
		respondError(c, s, err, "review")
		return
	}
	if !appended {
		apperrors.RespondWithNotices(c, http.StatusNotFound, apperrors.ReviewNotFound, "评价不存在", s.DrainNotices())
		return
	}
	respond(c, s, http.StatusOK, gin.H{"success": true})
}
