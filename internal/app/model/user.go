package model

// Profile defaults written on registration and for the guest identity.
const (
	GuestUserID      = "guest"
	GuestDisplayName = "游客"
	guestPlaceholder = "未知"
	unsetPlaceholder = "未设置"
)

// UserProfile is the active identity of a device session.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Major       string `json:"major"`
	Grade       string `json:"grade"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	IsGuest     bool   `json:"is_guest"`
}

// NewGuestProfile returns the fixed read-only guest identity.
func NewGuestProfile() *UserProfile {
	return &UserProfile{
		ID:          GuestUserID,
		DisplayName: GuestDisplayName,
		Major:       guestPlaceholder,
		Grade:       guestPlaceholder,
		IsGuest:     true,
	}
}

// NewRegisteredProfile builds the profile stored for a fresh account.
func NewRegisteredProfile(id, email, displayName string) *UserProfile {
	return &UserProfile{
		ID:          id,
		DisplayName: displayName,
		Email:       email,
		Major:       unsetPlaceholder,
		Grade:       unsetPlaceholder,
	}
}

// CanWrite reports whether the identity may mutate cart, reviews or favorites.
func (u *UserProfile) CanWrite() bool {
	return u != nil && !u.IsGuest
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name"`
	Major       *string `json:"major"`
	Grade       *string `json:"grade"`
	AvatarRef   *string `json:"avatar_ref"`
}

// Apply merges the non-nil fields into p.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Major != nil {
		p.Major = *u.Major
	}
	if u.Grade != nil {
		p.Grade = *u.Grade
	}
	if u.AvatarRef != nil {
		p.AvatarRef = *u.AvatarRef
	}
}

// CredentialRecord is a stored account. The password is only kept as a salted hash.
type CredentialRecord struct {
	Profile      UserProfile `json:"profile"`
	PasswordHash string      `json:"password_hash"`
}
