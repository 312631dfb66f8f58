package service

import (
	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
)

// BlockReason says why a write was refused.
type BlockReason int

const (
	NotBlocked BlockReason = iota
	BlockedNotLoggedIn
	BlockedGuestReadOnly
)

func (r BlockReason) String() string {
	switch r {
	case BlockedNotLoggedIn:
		return "not_logged_in"
	case BlockedGuestReadOnly:
		return "guest_read_only"
	default:
		return "allowed"
	}
}

// GateResult is the outcome of a capability check.
type GateResult struct {
	Reason BlockReason
}

func (g GateResult) Allowed() bool {
	return g.Reason == NotBlocked
}

// Err maps a blocked result to its AuthError, nil when allowed.
func (g GateResult) Err() error {
	switch g.Reason {
	case BlockedNotLoggedIn:
		return ErrNotLoggedIn
	case BlockedGuestReadOnly:
		return ErrGuestWriteBlocked
	default:
		return nil
	}
}

// IdentityProvider exposes the active identity of a session.
type IdentityProvider interface {
	Current() *model.UserProfile
}

// AuthGate guards every mutating entry point of a session.
type AuthGate struct {
	identity IdentityProvider
	notifier Notifier
}

func NewAuthGate(identity IdentityProvider, notifier Notifier) *AuthGate {
	return &AuthGate{identity: identity, notifier: notifier}
}

// Check inspects the active identity without side effects.
func (g *AuthGate) Check() GateResult {
	profile := g.identity.Current()
	switch {
	case profile == nil:
		return GateResult{Reason: BlockedNotLoggedIn}
	case profile.IsGuest:
		return GateResult{Reason: BlockedGuestReadOnly}
	default:
		return GateResult{}
	}
}

// Require runs action when the identity may write. Otherwise it emits an info notice
// and returns the blocking AuthError without calling action.
func (g *AuthGate) Require(action func() error) error {
	if err := g.guard(""); err != nil {
		return err
	}
	return action()
}

// guard is the guard clause used at the top of mutating methods. guestMessage overrides
// the generic guest notice.
func (g *AuthGate) guard(guestMessage string) error {
	result := g.Check()
	if result.Allowed() {
		return nil
	}

	message := ErrNotLoggedIn.Error()
	if result.Reason == BlockedGuestReadOnly {
		message = ErrGuestWriteBlocked.Error()
		if guestMessage != "" {
			message = guestMessage
		}
	}
	notifyInfo(g.notifier, message)

	logger.Debug("Write blocked by auth gate", map[string]interface{}{
		"reason": result.Reason.String(),
	})
	return result.Err()
}
