package service

import (
	"sync"
	"time"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/ikkim/must-canteen/pkg/ratelimit"
)

// DevicePush delivers notices and navigation events to a connected device.
type DevicePush interface {
	NotifierFor(deviceID string) Notifier
	NavigatorFor(deviceID string) Navigator
}

// SessionFactory holds the collaborators shared by every device session.
type SessionFactory struct {
	// Store returns the KVStore of a scope (a device id or repository.SharedScope).
	Store        func(scope string) repository.KVStore
	Credentials  repository.CredentialRepository
	Catalog      repository.CatalogRepository
	Gateway      GatewayService
	LoginLimiter *ratelimit.KeyedLimiter
	Push         DevicePush
}

// Session is the state engine of one device: identity, cart, likes and favorites.
type Session struct {
	DeviceID  string
	Identity  IdentityService
	Gate      *AuthGate
	Cart      CartService
	Reviews   ReviewService
	Favorites FavoritesService

	notices   *NoticeRecorder
	navigator Navigator

	mu       sync.Mutex
	lastSeen time.Time
}

// New wires a session for deviceID. Identity and favorites are restored from the store.
func (f SessionFactory) New(deviceID string) *Session {
	recorder := NewNoticeRecorder()
	var notifier Notifier = recorder
	var navigator Navigator = nopNavigator{}
	if f.Push != nil {
		notifier = MultiNotifier{recorder, f.Push.NotifierFor(deviceID)}
		navigator = f.Push.NavigatorFor(deviceID)
	}

	store := f.Store(deviceID)
	identity := NewIdentityService(f.Credentials, repository.NewSessionRepository(store), f.LoginLimiter, notifier)
	gate := NewAuthGate(identity, notifier)

	return &Session{
		DeviceID:  deviceID,
		Identity:  identity,
		Gate:      gate,
		Cart:      NewCartService(gate, f.Gateway, notifier),
		Reviews:   NewReviewService(identity, gate, f.Catalog, f.Gateway, notifier),
		Favorites: NewFavoritesService(repository.NewFavoritesRepository(store), gate, notifier),
		notices:   recorder,
		navigator: navigator,
		lastSeen:  time.Now(),
	}
}

// Login replaces the active identity and tells the navigator.
func (s *Session) Login(identifier, password string) (*model.UserProfile, error) {
	profile, err := s.Identity.Login(identifier, password)
	if err != nil {
		return nil, err
	}
	s.Reviews.ResetLikes()
	s.navigator.IdentityChanged(profile)
	return profile, nil
}

// GuestLogin enters read-only guest mode.
func (s *Session) GuestLogin() (*model.UserProfile, error) {
	profile, err := s.Identity.GuestLogin()
	if err != nil {
		return nil, err
	}
	s.Reviews.ResetLikes()
	s.navigator.IdentityChanged(profile)
	return profile, nil
}

// Logout forgets the identity, empties the cart and sends the client to the login page.
func (s *Session) Logout() error {
	if err := s.Identity.ClearSession(); err != nil {
		return err
	}
	s.Cart.Clear()
	s.Reviews.ResetLikes()
	logger.Info("Session logged out", map[string]interface{}{
		"device_id": s.DeviceID,
	})
	s.navigator.IdentityChanged(nil)
	return nil
}

// DrainNotices returns and clears the notices raised since the last drain.
func (s *Session) DrainNotices() []model.Notice {
	return s.notices.Drain()
}

// Touch marks the session as used.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Busy reports whether a gateway call that must not be interrupted is in flight.
func (s *Session) Busy() bool {
	return s.Cart.IsOrdering() || s.Reviews.IsSubmitting()
}
