package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/service"
	apperrors "github.com/ikkim/must-canteen/internal/errors"
	"github.com/ikkim/must-canteen/internal/middleware"
)

type AuthController struct {
	sessions *service.SessionManager
}

func NewAuthController(sessions *service.SessionManager) *AuthController {
	return &AuthController{sessions: sessions}
}

type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	// Identifier is the full email or its local part.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Register creates an account. It does not log in.
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请填写邮箱和密码")
		return
	}

	profile, err := s.Identity.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		log.Warn("Registration failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		respondError(c, s, err, "register")
		return
	}

	log.Info("Account registered", map[string]interface{}{
		"user_id": profile.ID,
	})
	respond(c, s, http.StatusCreated, gin.H{"user": profile})
}

// Login activates an account on this device.
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请填写账号和密码")
		return
	}

	profile, err := s.Login(req.Identifier, req.Password)
	if err != nil {
		respondError(c, s, err, "login")
		return
	}

	log.Info("Login succeeded", map[string]interface{}{
		"user_id": profile.ID,
	})
	respond(c, s, http.StatusOK, gin.H{"user": profile})
}

// Guest enters read-only guest mode.
// POST /api/v1/auth/guest
func (ctrl *AuthController) Guest(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	profile, err := s.GuestLogin()
	if err != nil {
		respondError(c, s, err, "guest")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"user": profile})
}

// Logout forgets the identity and empties the cart.
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	if err := s.Logout(); err != nil {
		middleware.GetLoggerFromContext(c).Error("Logout failed", err)
		respondError(c, s, err, "logout")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"success": true})
}

// GetMe returns the active identity, null when logged out.
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}
	respond(c, s, http.StatusOK, gin.H{"user": s.Identity.GetSession()})
}

// UpdateMe edits the active profile. Guests only change this device's copy.
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid profile update", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "资料格式不正确")
		return
	}

	profile, err := s.Identity.UpdateProfile(req)
	if err != nil {
		respondError(c, s, err, "profile")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"user": profile})
}

// ChangePassword changes the password of the logged-in account.
// PUT /api/v1/auth/password
func (ctrl *AuthController) ChangePassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFor(c, ctrl.sessions)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid change password request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "请填写原密码和新密码")
		return
	}

	err := s.Gate.Require(func() error {
		profile := s.Identity.Current()
		if profile == nil {
			return service.ErrNotLoggedIn
		}
		return s.Identity.ChangePassword(profile.Email, req.OldPassword, req.NewPassword)
	})
	if err != nil {
		respondError(c, s, err, "password")
		return
	}
	respond(c, s, http.StatusOK, gin.H{"success": true})
}
