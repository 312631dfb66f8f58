package controller

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitReview(t *testing.T, app *testApp, deviceID, targetID string) string {
	code, response := app.do(t, deviceID, http.MethodPost, "/targets/"+targetID+"/reviews", gin.H{
		"appearance": 5,
		"aroma":      5,
		"taste":      4,
		"comment":    "good",
	})
	require.Equal(t, http.StatusCreated, code, "%v", response)
	return response["review"].(map[string]interface{})["id"].(string)
}

func TestReviewController_SubmitAndList(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{})
	app.loginAs(t, "dev-1", "alice@must.edu.mo")

	code, response := app.do(t, "dev-1", http.MethodPost, "/targets/S1/reviews", gin.H{
		"appearance": 5,
		"aroma":      5,
		"taste":      4,
		"comment":    "good",
	})
	require.Equal(t, http.StatusCreated, code)
	review := response["review"].(map[string]interface{})
	assert.Equal(t, 5.0, review["overall_rating"])
	assert.Equal(t, "alice", review["author_name"])
	assert.Equal(t, []string{"评价发布成功！"}, noticeMessages(response))

	code, response = app.do(t, "dev-1", http.MethodGet, "/targets/S1/reviews", nil)
	require.Equal(t, http.StatusOK, code)
	view := response["reviews"].(map[string]interface{})
	assert.Equal(t, 2.0, view["total"])
	chronological := view["chronological"].([]interface{})
	require.Len(t, chronological, 2)
	assert.Equal(t, review["id"], chronological[0].(map[string]interface{})["id"])
}

func TestReviewController_SubmitValidation(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{})
	app.loginAs(t, "dev-1", "alice@must.edu.mo")

	tests := []struct {
		name     string
		body     gin.H
		wantCode string
	}{
		{"missing rating", gin.H{"appearance": 5, "aroma": 5, "comment": "good"}, apperrors.ValidationInvalidRating},
		{"rating out of range", gin.H{"appearance": 6, "aroma": 5, "taste": 5, "comment": "good"}, apperrors.ValidationInvalidRating},
		{"blank comment", gin.H{"appearance": 5, "aroma": 5, "taste": 5, "comment": "   "}, apperrors.ValidationRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, response := app.do(t, "dev-1", http.MethodPost, "/targets/S1/reviews", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.wantCode, response["error"])
		})
	}
}

func TestReviewController_UnknownTarget(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{})
	app.loginAs(t, "dev-1", "alice@must.edu.mo")

	code, _ := app.do(t, "dev-1", http.MethodGet, "/targets/nope/reviews", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReviewController_GuestCannotWrite(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{})
	app.do(t, "dev-1", http.MethodPost, "/auth/guest", nil)

	code, response := app.do(t, "dev-1", http.MethodPost, "/targets/S1/reviews", gin.H{
		"appearance": 5, "aroma": 5, "taste": 5, "comment": "good",
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, apperrors.AuthGuestReadOnly, response["error"])

	// reading stays open to guests
	code, _ = app.do(t, "dev-1", http.MethodGet, "/targets/S1/reviews", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestReviewController_LikeOnce(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{})
	app.loginAs(t, "dev-1", "alice@must.edu.mo")
	app.loginAs(t, "dev-2", "bob@must.edu.mo")

	code, response := app.do(t, "dev-1", http.MethodPost, "/targets/S1/reviews/r-s1-a/like", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, response["liked"])
	assert.Equal(t, true, response["has_liked"])

	code, response = app.do(t, "dev-1", http.MethodPost, "/targets/S1/reviews/r-s1-a/like", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, response["liked"])
	assert.Equal(t, true, response["has_liked"])

	_, response = app.do(t, "dev-1", http.MethodGet, "/targets/S1/reviews", nil)
	liked := response["reviews"].(map[string]interface{})["liked"].([]interface{})
	assert.Equal(t, []interface{}{"r-s1-a"}, liked)

	// likes belong to the session
	code, response = app.do(t, "dev-2", http.MethodPost, "/targets/S1/reviews/r-s1-a/like", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, response["liked"])
}

func TestReviewController_LikeRollback(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{
		Faults: service.FaultFunc(func(op service.Operation) bool {
			return op == service.OpLikeReview
		}),
	})
	app.loginAs(t, "dev-1", "alice@must.edu.mo")

	code, response := app.do(t, "dev-1", http.MethodPost, "/targets/S1/reviews/r-s1-a/like", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, []string{"点赞失败，请重试"}, noticeMessages(response))

	_, response = app.do(t, "dev-1", http.MethodGet, "/targets/S1/reviews", nil)
	assert.Empty(t, response["reviews"].(map[string]interface{})["liked"])
}

func TestReviewController_MyReviewsAppendDelete(t *testing.T) {
	app := setupTestApp(t, service.GatewayOptions{})
	app.loginAs(t, "dev-1", "alice@must.edu.mo")
	app.loginAs(t, "dev-2", "bob@must.edu.mo")

	reviewID := submitReview(t, app, "dev-1", "D1")

	code, response := app.do(t, "dev-1", http.MethodGet, "/me/reviews", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, response["count"])
	mine := response["reviews"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "D1", mine["target_id"])
	assert.Equal(t, "Beef Noodles", mine["target_name"])

	t.Run("append to own review", func(t *testing.T) {
		code, response := app.do(t, "dev-1", http.MethodPost, "/reviews/"+reviewID+"/append", gin.H{"text": "still good"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, []string{"追评成功"}, noticeMessages(response))
	})

	t.Run("empty append", func(t *testing.T) {
		code, response := app.do(t, "dev-1", http.MethodPost, "/reviews/"+reviewID+"/append", gin.H{"text": " "})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, apperrors.ValidationRequired, response["error"])
	})

	t.Run("foreign review", func(t *testing.T) {
		code, response := app.do(t, "dev-2", http.MethodDelete, "/reviews/"+reviewID, nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, apperrors.AuthzForbidden, response["error"])
	})

	t.Run("delete own review", func(t *testing.T) {
		code, response := app.do(t, "dev-1", http.MethodDelete, "/reviews/"+reviewID, nil)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, []string{"删除成功"}, noticeMessages(response))
	})

	t.Run("missing review", func(t *testing.T) {
		code, response := app.do(t, "dev-1", http.MethodDelete, "/reviews/"+reviewID, nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, apperrors.ReviewNotFound, response["error"])

		code, _ = app.do(t, "dev-1", http.MethodPost, "/reviews/"+reviewID+"/append", gin.H{"text": "again"})
		assert.Equal(t, http.StatusNotFound, code)
	})

	_, response = app.do(t, "dev-1", http.MethodGet, "/me/reviews", nil)
	assert.Equal(t, 0.0, response["count"])
}
