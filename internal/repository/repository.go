package repository

import (
	"context"
	"time"

	"github.com/gatepass/gatepass-server/internal/models"
)

// Repository is the keyed-record store the service runs against. Reads
// return nil (not an error) when a record does not exist. The only
// conditional-write operation is CheckInGuest: it transitions a guest to
// checked-in only if the guest is not already checked in, atomically, and
// reports whether this call performed the transition.
type Repository interface {
	// Account operations
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	ListAccountsByRole(ctx context.Context, role models.Role) ([]models.Account, error)
	ListAccountsByCreator(ctx context.Context, creatorID string) ([]models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	CountAccountsByRole(ctx context.Context, role models.Role) (int, error)

	// Event operations. CreateEvent also increments the owning manager's
	// events_used counter in the same transaction; DeleteEvent does not
	// decrement it.
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEventsByManager(ctx context.Context, managerID string) ([]models.Event, error)
	ListAllEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
	CountAllEvents(ctx context.Context) (int, error)

	// Guest operations
	CreateGuests(ctx context.Context, guests []models.Guest) error
	GetGuestByID(ctx context.Context, id string) (*models.Guest, error)
	GetGuestByCode(ctx context.Context, code string) (*models.Guest, error)
	ListGuestsByEvent(ctx context.Context, eventID string) ([]models.Guest, error)
	DeleteGuest(ctx context.Context, id string) error
	CountGuestsByEvents(ctx context.Context, eventIDs []string) (total, checkedIn int, err error)
	CheckInGuest(ctx context.Context, guestID, actorID string, at time.Time) (bool, error)

	// Assignment graph operations. AddAssignment is an idempotent upsert;
	// RemoveAssignment never errors on a missing pair.
	AddAssignment(ctx context.Context, eventID, organizerID string) error
	RemoveAssignment(ctx context.Context, eventID, organizerID string) error
	IsOrganizerAssigned(ctx context.Context, eventID, organizerID string) (bool, error)
	ListOrganizersByEvent(ctx context.Context, eventID string) ([]models.Account, error)
	ListActiveEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)

	// Audit trail: append-only, read back newest-first.
	AppendAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditLogsByEvent(ctx context.Context, eventID string) ([]models.AuditLogEntry, error)
}
