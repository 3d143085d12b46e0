package models

// Request models
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateAccountRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role" binding:"required"`
	EventQuota *int   `json:"eventQuota"`
}

// UpdateAccountRequest carries a partial account update. Nil fields are
// left untouched.
type UpdateAccountRequest struct {
	Name       *string `json:"name"`
	Password   *string `json:"password"`
	IsActive   *bool   `json:"isActive"`
	EventQuota *int    `json:"eventQuota"`
}

type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventDate   string `json:"eventDate" binding:"required"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type UpdateEventRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	EventDate   *string `json:"eventDate"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	IsActive    *bool   `json:"isActive"`
}

// GuestRow is one row of a guest-list upload. Rows are handled leniently:
// missing fields become empty values, unknown categories become regular.
type GuestRow struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Category   string `json:"category"`
	Companions int    `json:"companions"`
	Notes      string `json:"notes"`
}

type UploadGuestsRequest struct {
	Guests []GuestRow `json:"guests" binding:"required"`
}

type AssignOrganizerRequest struct {
	OrganizerID string `json:"organizerId" binding:"required"`
}

type CheckInRequest struct {
	QRCode string `json:"qrCode" binding:"required"`
}

// Response models
type LoginResponse struct {
	Status    string        `json:"status"`
	Token     string        `json:"token"`
	ExpiresIn int           `json:"expiresIn"`
	Account   AccountPublic `json:"account"`
}

type UploadGuestsResponse struct {
	Status  string  `json:"status"`
	Created int     `json:"created"`
	Guests  []Guest `json:"guests"`
}

// CheckInStatus is the three-way outcome of a check-in attempt. Duplicate
// and Invalid are successful-call outcomes, not errors: a scanner re-reading
// a used code must be able to show "already used" distinctly from "not
// found".
type CheckInStatus string

const (
	CheckInSuccess   CheckInStatus = "success"
	CheckInDuplicate CheckInStatus = "duplicate"
	CheckInInvalid   CheckInStatus = "invalid"
)

// CheckInResult is returned by every check-in attempt. On Duplicate, the
// original check-in time and the name of the original actor are included
// and the stored state is untouched.
type CheckInResult struct {
	Status        CheckInStatus `json:"status"`
	Message       string        `json:"message,omitempty"`
	Guest         *Guest        `json:"guest,omitempty"`
	CheckedInAt   *string       `json:"checkedInAt,omitempty"`
	CheckedInName string        `json:"checkedInBy,omitempty"`
}

// StatsResponse is the role-scoped aggregate view. Which fields are
// populated depends on the actor's role.
type StatsResponse struct {
	Status          string `json:"status"`
	Role            Role   `json:"role"`
	Admins          *int   `json:"admins,omitempty"`
	EventManagers   *int   `json:"eventManagers,omitempty"`
	Organizers      *int   `json:"organizers,omitempty"`
	Events          *int   `json:"events,omitempty"`
	AssignedEvents  *int   `json:"assignedEvents,omitempty"`
	Guests          *int   `json:"guests,omitempty"`
	CheckedIn       *int   `json:"checkedIn,omitempty"`
	EventQuota      *int   `json:"eventQuota,omitempty"`
	EventsUsed      *int   `json:"eventsUsed,omitempty"`
	EventsRemaining *int   `json:"eventsRemaining,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
