package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/ikkim/must-canteen/pkg/ratelimit"
	"github.com/ikkim/must-canteen/pkg/util"
	"gorm.io/gorm"
)

// IdentityService owns the active identity of one device and the shared credential records.
type IdentityService interface {
	IdentityProvider
	Register(email, password, displayName string) (*model.UserProfile, error)
	Login(identifier, password string) (*model.UserProfile, error)
	GuestLogin() (*model.UserProfile, error)
	ChangePassword(email, oldPassword, newPassword string) error
	UpdateProfile(updates model.ProfileUpdate) (*model.UserProfile, error)
	// GetSession returns the remembered identity without validating credentials.
	GetSession() *model.UserProfile
	ClearSession() error
}

type identityService struct {
	mu          sync.Mutex
	current     *model.UserProfile
	credRepo    repository.CredentialRepository
	sessionRepo repository.SessionRepository
	limiter     *ratelimit.KeyedLimiter
	notifier    Notifier
}

// NewIdentityService restores the remembered session of the device. limiter may be nil.
func NewIdentityService(
	credRepo repository.CredentialRepository,
	sessionRepo repository.SessionRepository,
	limiter *ratelimit.KeyedLimiter,
	notifier Notifier,
) IdentityService {
	s := &identityService{
		credRepo:    credRepo,
		sessionRepo: sessionRepo,
		limiter:     limiter,
		notifier:    notifier,
	}
	if profile, err := sessionRepo.Get(); err == nil {
		s.current = profile
	}
	return s
}

func (s *identityService) Current() *model.UserProfile {
	return s.GetSession()
}

func (s *identityService) GetSession() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	profile := *s.current
	return &profile
}

func (s *identityService) Register(email, password, displayName string) (*model.UserProfile, error) {
	email = strings.TrimSpace(email)
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	if !util.IsInstitutionalEmail(email) {
		logger.Warn("Registration failed: email domain rejected", map[string]interface{}{
			"email": email,
		})
		return nil, ErrInvalidEmailDomain
	}
	if !util.IsStrongPassword(password) {
		return nil, ErrWeakPassword
	}

	existing, err := s.credRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing account", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrDuplicateAccount
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = util.EmailLocalPart(email)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	profile := model.NewRegisteredProfile("u-"+uuid.NewString(), email, displayName)
	if err := s.credRepo.Create(model.CredentialRecord{Profile: *profile, PasswordHash: hash}); err != nil {
		// another registration of this email won the race while we were hashing
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateAccount
		}
		logger.Error("Failed to store credential record", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": profile.ID,
		"email":   email,
	})
	notifySuccess(s.notifier, "注册成功！请登录")
	return profile, nil
}

func (s *identityService) Login(identifier, password string) (*model.UserProfile, error) {
	identifier = strings.TrimSpace(identifier)
	logger.Info("Login attempt", map[string]interface{}{
		"identifier": identifier,
	})

	if s.limiter != nil && !s.limiter.Allow(identifier) {
		logger.Warn("Login throttled", map[string]interface{}{
			"identifier": identifier,
		})
		return nil, ErrTooManyAttempts
	}

	candidates, err := s.credRepo.FindByIdentifier(identifier)
	if err != nil {
		logger.Error("Failed to look up credentials", err, map[string]interface{}{
			"identifier": identifier,
		})
		return nil, err
	}

	var matched *model.UserProfile
	for i := range candidates {
		if util.VerifyPassword(candidates[i].PasswordHash, password) {
			matched = &candidates[i].Profile
			break
		}
	}
	if matched == nil {
		logger.Warn("Login failed: invalid credentials", map[string]interface{}{
			"identifier": identifier,
			"candidates": len(candidates),
		})
		return nil, ErrInvalidCredentials
	}

	if err := s.setSession(matched); err != nil {
		return nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": matched.ID,
	})
	notifySuccess(s.notifier, fmt.Sprintf("欢迎回来，%s", matched.DisplayName))
	profile := *matched
	return &profile, nil
}

func (s *identityService) GuestLogin() (*model.UserProfile, error) {
	guest := model.NewGuestProfile()
	if err := s.setSession(guest); err != nil {
		return nil, err
	}
	logger.Info("Guest session started")
	notifyInfo(s.notifier, "已进入游客模式")
	return model.NewGuestProfile(), nil
}

func (s *identityService) ChangePassword(email, oldPassword, newPassword string) error {
	email = strings.TrimSpace(email)
	logger.Info("Password change requested", map[string]interface{}{
		"email": email,
	})

	err := s.credRepo.Update(email, func(rec *model.CredentialRecord) error {
		if !util.VerifyPassword(rec.PasswordHash, oldPassword) {
			return ErrWrongOldPassword
		}
		if !util.IsStrongPassword(newPassword) {
			return ErrWeakPassword
		}
		hash, err := util.HashPassword(newPassword)
		if err != nil {
			return err
		}
		rec.PasswordHash = hash
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Password change failed: user not found", map[string]interface{}{
			"email": email,
		})
		return ErrUserNotFound
	}
	if err != nil {
		logger.Warn("Password change failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return err
	}

	logger.Info("Password changed successfully", map[string]interface{}{
		"email": email,
	})
	notifySuccess(s.notifier, "密码修改成功")
	return nil
}

func (s *identityService) UpdateProfile(updates model.ProfileUpdate) (*model.UserProfile, error) {
	if updates.DisplayName != nil && strings.TrimSpace(*updates.DisplayName) == "" {
		return nil, ErrEmptyDisplayName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNotLoggedIn
	}
	next := *s.current
	updates.Apply(&next)

	if !next.IsGuest && next.Email != "" {
		err := s.credRepo.Update(next.Email, func(rec *model.CredentialRecord) error {
			updates.Apply(&rec.Profile)
			return nil
		})
		// a session whose account vanished still keeps its local edit
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to update credential profile", err, map[string]interface{}{
				"user_id": next.ID,
			})
			return nil, err
		}
	}
	if err := s.sessionRepo.Save(&next); err != nil {
		logger.Error("Failed to save session", err, map[string]interface{}{
			"user_id": next.ID,
		})
		return nil, err
	}
	s.current = &next

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": next.ID,
	})
	notifySuccess(s.notifier, "个人资料已更新")
	profile := next
	return &profile, nil
}

func (s *identityService) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessionRepo.Clear(); err != nil {
		logger.Error("Failed to clear session", err)
		return err
	}
	s.current = nil
	return nil
}

// setSession replaces the active identity wholesale.
func (s *identityService) setSession(profile *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessionRepo.Save(profile); err != nil {
		logger.Error("Failed to save session", err, map[string]interface{}{
			"user_id": profile.ID,
		})
		return err
	}
	stored := *profile
	s.current = &stored
	return nil
}
