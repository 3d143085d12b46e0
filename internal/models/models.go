package models

import (
	"strings"
	"time"
)

// Role is the closed set of account roles. The hierarchy is fixed:
// super_admin → admin → event_manager → organizer.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleAdmin        Role = "admin"
	RoleEventManager Role = "event_manager"
	RoleOrganizer    Role = "organizer"
)

// ParseRole maps a request string onto a Role. ok is false for anything
// outside the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleEventManager, RoleOrganizer:
		return Role(s), true
	}
	return "", false
}

// GuestCategory is the closed set of guest categories.
type GuestCategory string

const (
	CategoryRegular GuestCategory = "regular"
	CategoryVIP     GuestCategory = "vip"
	CategoryMedia   GuestCategory = "media"
	CategorySponsor GuestCategory = "sponsor"
)

// NormalizeCategory folds case and defaults anything unrecognized to
// regular. Upload rows are never rejected over a bad category.
func NormalizeCategory(s string) GuestCategory {
	switch GuestCategory(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryVIP:
		return CategoryVIP
	case CategoryMedia:
		return CategoryMedia
	case CategorySponsor:
		return CategorySponsor
	}
	return CategoryRegular
}

// Account represents a staff account. Every non-root account records its
// creator; only the root super_admin has CreatedBy == nil.
type Account struct {
	ID         string    `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	Name       string    `db:"name" json:"name"`
	Password   string    `db:"password" json:"-"`
	Role       Role      `db:"role" json:"role"`
	IsActive   bool      `db:"is_active" json:"isActive"`
	CreatedBy  *string   `db:"created_by" json:"createdBy,omitempty"`
	EventQuota int       `db:"event_quota" json:"eventQuota"`
	EventsUsed int       `db:"events_used" json:"eventsUsed"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// EventsRemaining reports the advisory quota balance, clamped at zero.
// Meaningful only for event managers.
func (a *Account) EventsRemaining() int {
	if remaining := a.EventQuota - a.EventsUsed; remaining > 0 {
		return remaining
	}
	return 0
}

// AccountPublic is Account without the password hash and with the quota
// balance resolved, for API responses.
type AccountPublic struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	IsActive        bool      `json:"isActive"`
	CreatedBy       *string   `json:"createdBy,omitempty"`
	EventQuota      int       `json:"eventQuota,omitempty"`
	EventsUsed      int       `json:"eventsUsed,omitempty"`
	EventsRemaining int       `json:"eventsRemaining,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToPublic converts an Account to its API representation. Quota fields are
// only populated for event managers.
func (a *Account) ToPublic() AccountPublic {
	pub := AccountPublic{
		ID:        a.ID,
		Username:  a.Username,
		Name:      a.Name,
		Role:      a.Role,
		IsActive:  a.IsActive,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
	if a.Role == RoleEventManager {
		pub.EventQuota = a.EventQuota
		pub.EventsUsed = a.EventsUsed
		pub.EventsRemaining = a.EventsRemaining()
	}
	return pub
}

// Event is owned by exactly one event manager for its whole lifetime.
type Event struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	Location       string    `db:"location" json:"location"`
	EventDate      string    `db:"event_date" json:"eventDate"`
	StartTime      string    `db:"start_time" json:"startTime,omitempty"`
	EndTime        string    `db:"end_time" json:"endTime,omitempty"`
	EventManagerID string    `db:"event_manager_id" json:"eventManagerId"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Guest belongs to exactly one event. CheckedInAt and CheckedInBy are set
// together, exactly once, when the guest transitions to checked-in.
type Guest struct {
	ID          string        `db:"id" json:"id"`
	EventID     string        `db:"event_id" json:"eventId"`
	Name        string        `db:"name" json:"name"`
	Phone       string        `db:"phone" json:"phone"`
	Category    GuestCategory `db:"category" json:"category"`
	Companions  int           `db:"companions" json:"companions"`
	Notes       string        `db:"notes" json:"notes"`
	QRCode      string        `db:"qr_code" json:"qrCode"`
	IsCheckedIn bool          `db:"is_checked_in" json:"isCheckedIn"`
	CheckedInAt *time.Time    `db:"checked_in_at" json:"checkedInAt,omitempty"`
	CheckedInBy *string       `db:"checked_in_by" json:"checkedInBy,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
}

// Assignment grants one organizer check-in rights over one event.
type Assignment struct {
	EventID     string    `db:"event_id" json:"eventId"`
	OrganizerID string    `db:"organizer_id" json:"organizerId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// AuditLogEntry is an append-only record of one state-changing action.
type AuditLogEntry struct {
	ID        string    `db:"id" json:"id"`
	EventID   string    `db:"event_id" json:"eventId"`
	ActorID   string    `db:"actor_id" json:"actorId"`
	Action    string    `db:"action" json:"action"`
	Detail    string    `db:"detail" json:"detail"`
	GuestID   *string   `db:"guest_id" json:"guestId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Audit action tags.
const (
	ActionCheckIn          = "check_in"
	ActionGuestUpload      = "guest_upload"
	ActionGuestDeleted     = "guest_deleted"
	ActionEventUpdated     = "event_updated"
	ActionOrganizerAdded   = "organizer_assigned"
	ActionOrganizerRemoved = "organizer_removed"
)
