package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gatepass/gatepass-server/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// ErrDuplicateKey is returned when an insert violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// isUniqueViolation reports whether the error is a Postgres unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Account repository methods
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, name, password, role, is_active, created_by, event_quota, events_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Generate a new UUID if not provided
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Username, account.Name, account.Password, account.Role,
		account.IsActive, account.CreatedBy, account.EventQuota, account.EventsUsed,
		account.CreatedAt, account.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}

	return err
}

func (r *PostgresRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE id = $1`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Account not found
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE username = $1`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Account not found
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) ListAccountsByRole(ctx context.Context, role models.Role) ([]models.Account, error) {
	query := `SELECT * FROM accounts WHERE role = $1 ORDER BY created_at DESC`

	var accounts []models.Account
	err := r.db.SelectContext(ctx, &accounts, query, role)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *PostgresRepository) ListAccountsByCreator(ctx context.Context, creatorID string) ([]models.Account, error) {
	query := `SELECT * FROM accounts WHERE created_by = $1 ORDER BY created_at DESC`

	var accounts []models.Account
	err := r.db.SelectContext(ctx, &accounts, query, creatorID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, password = $2, is_active = $3, event_quota = $4, updated_at = $5
		WHERE id = $6
	`

	account.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		account.Name, account.Password, account.IsActive, account.EventQuota,
		account.UpdatedAt, account.ID)

	return err
}

func (r *PostgresRepository) CountAccountsByRole(ctx context.Context, role models.Role) (int, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE role = $1`

	var count int
	err := r.db.GetContext(ctx, &count, query, role)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Event repository methods
func (r *PostgresRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	query := `
		INSERT INTO events (id, name, description, location, event_date, start_time, end_time, event_manager_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Generate a new UUID if not provided
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err = tx.ExecContext(ctx, query,
		event.ID, event.Name, event.Description, event.Location, event.EventDate,
		event.StartTime, event.EndTime, event.EventManagerID, event.IsActive,
		event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return err
	}

	// Quota consumption is monotonic: the counter is never decremented,
	// even when the event is later deleted.
	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET events_used = events_used + 1, updated_at = $1 WHERE id = $2`,
		now, event.EventManagerID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT * FROM events WHERE id = $1`

	var event models.Event
	err := r.db.GetContext(ctx, &event, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Event not found
		}
		return nil, err
	}

	return &event, nil
}

func (r *PostgresRepository) ListEventsByManager(ctx context.Context, managerID string) ([]models.Event, error) {
	query := `SELECT * FROM events WHERE event_manager_id = $1 ORDER BY created_at DESC`

	var events []models.Event
	err := r.db.SelectContext(ctx, &events, query, managerID)
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *PostgresRepository) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	query := `SELECT * FROM events ORDER BY created_at DESC`

	var events []models.Event
	err := r.db.SelectContext(ctx, &events, query)
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (r *PostgresRepository) UpdateEvent(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, location = $3, event_date = $4,
		    start_time = $5, end_time = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`

	event.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		event.Name, event.Description, event.Location, event.EventDate,
		event.StartTime, event.EndTime, event.IsActive, event.UpdatedAt, event.ID)

	return err
}

func (r *PostgresRepository) DeleteEvent(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Delete dependent records first (due to foreign key constraints)
	_, err = tx.ExecContext(ctx, `DELETE FROM audit_logs WHERE event_id = $1`, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM event_organizers WHERE event_id = $1`, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM guests WHERE event_id = $1`, id)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) CountAllEvents(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM events`

	var count int
	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Guest repository methods
func (r *PostgresRepository) CreateGuests(ctx context.Context, guests []models.Guest) error {
	if len(guests) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	query := `
		INSERT INTO guests (id, event_id, name, phone, category, companions, notes, qr_code, is_checked_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i := range guests {
		g := &guests[i]
		_, err = tx.ExecContext(ctx, query,
			g.ID, g.EventID, g.Name, g.Phone, g.Category, g.Companions,
			g.Notes, g.QRCode, g.IsCheckedIn, g.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetGuestByID(ctx context.Context, id string) (*models.Guest, error) {
	query := `SELECT * FROM guests WHERE id = $1`

	var guest models.Guest
	err := r.db.GetContext(ctx, &guest, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Guest not found
		}
		return nil, err
	}

	return &guest, nil
}

func (r *PostgresRepository) GetGuestByCode(ctx context.Context, code string) (*models.Guest, error) {
	query := `SELECT * FROM guests WHERE qr_code = $1`

	var guest models.Guest
	err := r.db.GetContext(ctx, &guest, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Guest not found
		}
		return nil, err
	}

	return &guest, nil
}

func (r *PostgresRepository) ListGuestsByEvent(ctx context.Context, eventID string) ([]models.Guest, error) {
	query := `SELECT * FROM guests WHERE event_id = $1 ORDER BY created_at ASC`

	var guests []models.Guest
	err := r.db.SelectContext(ctx, &guests, query, eventID)
	if err != nil {
		return nil, err
	}

	return guests, nil
}

func (r *PostgresRepository) DeleteGuest(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) CountGuestsByEvents(ctx context.Context, eventIDs []string) (int, int, error) {
	if len(eventIDs) == 0 {
		return 0, 0, nil
	}

	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_checked_in) FROM guests
		WHERE event_id = ANY($1)
	`

	var total, checkedIn int
	err := r.db.QueryRowContext(ctx, query, pq.Array(eventIDs)).Scan(&total, &checkedIn)
	if err != nil {
		return 0, 0, err
	}

	return total, checkedIn, nil
}

// CheckInGuest transitions a guest to checked-in only if it is not already
// checked in. The condition is part of the UPDATE itself, so two concurrent
// first-time scans can never both succeed: exactly one caller sees
// updated=true, the other sees updated=false with the original check-in
// identity left untouched.
func (r *PostgresRepository) CheckInGuest(ctx context.Context, guestID, actorID string, at time.Time) (bool, error) {
	query := `
		UPDATE guests
		SET is_checked_in = TRUE, checked_in_at = $1, checked_in_by = $2
		WHERE id = $3 AND is_checked_in = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, at, actorID, guestID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// Assignment graph repository methods
func (r *PostgresRepository) AddAssignment(ctx context.Context, eventID, organizerID string) error {
	// Upsert: assigning the same organizer twice is a no-op.
	query := `
		INSERT INTO event_organizers (event_id, organizer_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, organizer_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, eventID, organizerID, time.Now().UTC())
	return err
}

func (r *PostgresRepository) RemoveAssignment(ctx context.Context, eventID, organizerID string) error {
	query := `DELETE FROM event_organizers WHERE event_id = $1 AND organizer_id = $2`

	_, err := r.db.ExecContext(ctx, query, eventID, organizerID)
	return err
}

func (r *PostgresRepository) IsOrganizerAssigned(ctx context.Context, eventID, organizerID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM event_organizers WHERE event_id = $1 AND organizer_id = $2)`

	var assigned bool
	err := r.db.GetContext(ctx, &assigned, query, eventID, organizerID)
	if err != nil {
		return false, err
	}

	return assigned, nil
}

func (r *PostgresRepository) ListOrganizersByEvent(ctx context.Context, eventID string) ([]models.Account, error) {
	query := `
		SELECT a.* FROM accounts a
		JOIN event_organizers eo ON a.id = eo.organizer_id
		WHERE eo.event_id = $1
		ORDER BY a.created_at DESC
	`

	var accounts []models.Account
	err := r.db.SelectContext(ctx, &accounts, query, eventID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *PostgresRepository) ListActiveEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	// Inactive events stay invisible to organizers even while assigned.
	query := `
		SELECT e.* FROM events e
		JOIN event_organizers eo ON e.id = eo.event_id
		WHERE eo.organizer_id = $1 AND e.is_active = TRUE
		ORDER BY e.created_at DESC
	`

	var events []models.Event
	err := r.db.SelectContext(ctx, &events, query, organizerID)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// Audit trail repository methods
func (r *PostgresRepository) AppendAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (id, event_id, actor_id, action, detail, guest_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	// Generate a new UUID if not provided
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.EventID, entry.ActorID, entry.Action, entry.Detail,
		entry.GuestID, entry.CreatedAt)

	return err
}

func (r *PostgresRepository) ListAuditLogsByEvent(ctx context.Context, eventID string) ([]models.AuditLogEntry, error) {
	query := `SELECT * FROM audit_logs WHERE event_id = $1 ORDER BY created_at DESC`

	var entries []models.AuditLogEntry
	err := r.db.SelectContext(ctx, &entries, query, eventID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
