package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gatepass/gatepass-server/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs the
// test harness so the router-level suites run without an external
// database, and it honors the same contracts as the Postgres
// implementation, including the conditional check-in write.
type MemoryRepository struct {
	mu          sync.Mutex
	accounts    map[string]*models.Account
	events      map[string]*models.Event
	guests      map[string]*models.Guest
	assignments map[string]map[string]time.Time // eventID -> organizerID -> created
	auditLogs   []models.AuditLogEntry
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:    make(map[string]*models.Account),
		events:      make(map[string]*models.Event),
		guests:      make(map[string]*models.Guest),
		assignments: make(map[string]map[string]time.Time),
	}
}

// Account operations
func (r *MemoryRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return ErrDuplicateKey
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (r *MemoryRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListAccountsByRole(ctx context.Context, role models.Role) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []models.Account
	for _, account := range r.accounts {
		if account.Role == role {
			accounts = append(accounts, *account)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func (r *MemoryRepository) ListAccountsByCreator(ctx context.Context, creatorID string) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []models.Account
	for _, account := range r.accounts {
		if account.CreatedBy != nil && *account.CreatedBy == creatorID {
			accounts = append(accounts, *account)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func (r *MemoryRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[account.ID]
	if !ok {
		return nil
	}

	existing.Name = account.Name
	existing.Password = account.Password
	existing.IsActive = account.IsActive
	existing.EventQuota = account.EventQuota
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) CountAccountsByRole(ctx context.Context, role models.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, account := range r.accounts {
		if account.Role == role {
			count++
		}
	}
	return count, nil
}

// Event operations
func (r *MemoryRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	stored := *event
	r.events[event.ID] = &stored

	if manager, ok := r.accounts[event.EventManagerID]; ok {
		manager.EventsUsed++
		manager.UpdatedAt = now
	}
	return nil
}

func (r *MemoryRepository) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (r *MemoryRepository) ListEventsByManager(ctx context.Context, managerID string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []models.Event
	for _, event := range r.events {
		if event.EventManagerID == managerID {
			events = append(events, *event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (r *MemoryRepository) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []models.Event
	for _, event := range r.events {
		events = append(events, *event)
	}
	sortEvents(events)
	return events, nil
}

func (r *MemoryRepository) UpdateEvent(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.events[event.ID]
	if !ok {
		return nil
	}

	existing.Name = event.Name
	existing.Description = event.Description
	existing.Location = event.Location
	existing.EventDate = event.EventDate
	existing.StartTime = event.StartTime
	existing.EndTime = event.EndTime
	existing.IsActive = event.IsActive
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) DeleteEvent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.events, id)
	delete(r.assignments, id)

	for guestID, guest := range r.guests {
		if guest.EventID == id {
			delete(r.guests, guestID)
		}
	}

	kept := r.auditLogs[:0]
	for _, entry := range r.auditLogs {
		if entry.EventID != id {
			kept = append(kept, entry)
		}
	}
	r.auditLogs = kept
	return nil
}

func (r *MemoryRepository) CountAllEvents(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), nil
}

// Guest operations
func (r *MemoryRepository) CreateGuests(ctx context.Context, guests []models.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range guests {
		stored := guests[i]
		r.guests[stored.ID] = &stored
	}
	return nil
}

func (r *MemoryRepository) GetGuestByID(ctx context.Context, id string) (*models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guest, ok := r.guests[id]
	if !ok {
		return nil, nil
	}
	copied := *guest
	return &copied, nil
}

func (r *MemoryRepository) GetGuestByCode(ctx context.Context, code string) (*models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, guest := range r.guests {
		if guest.QRCode == code {
			copied := *guest
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListGuestsByEvent(ctx context.Context, eventID string) ([]models.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var guests []models.Guest
	for _, guest := range r.guests {
		if guest.EventID == eventID {
			guests = append(guests, *guest)
		}
	}
	sort.Slice(guests, func(i, j int) bool {
		if guests[i].CreatedAt.Equal(guests[j].CreatedAt) {
			return guests[i].ID < guests[j].ID
		}
		return guests[i].CreatedAt.Before(guests[j].CreatedAt)
	})
	return guests, nil
}

func (r *MemoryRepository) DeleteGuest(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.guests, id)
	return nil
}

func (r *MemoryRepository) CountGuestsByEvents(ctx context.Context, eventIDs []string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = struct{}{}
	}

	total, checkedIn := 0, 0
	for _, guest := range r.guests {
		if _, ok := ids[guest.EventID]; !ok {
			continue
		}
		total++
		if guest.IsCheckedIn {
			checkedIn++
		}
	}
	return total, checkedIn, nil
}

// CheckInGuest performs the conditional check-in transition under the
// store lock, so at most one concurrent caller observes updated=true.
func (r *MemoryRepository) CheckInGuest(ctx context.Context, guestID, actorID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	guest, ok := r.guests[guestID]
	if !ok || guest.IsCheckedIn {
		return false, nil
	}

	guest.IsCheckedIn = true
	guest.CheckedInAt = &at
	guest.CheckedInBy = &actorID
	return true, nil
}

// Assignment graph operations
func (r *MemoryRepository) AddAssignment(ctx context.Context, eventID, organizerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byEvent, ok := r.assignments[eventID]
	if !ok {
		byEvent = make(map[string]time.Time)
		r.assignments[eventID] = byEvent
	}
	if _, exists := byEvent[organizerID]; !exists {
		byEvent[organizerID] = time.Now().UTC()
	}
	return nil
}

func (r *MemoryRepository) RemoveAssignment(ctx context.Context, eventID, organizerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byEvent, ok := r.assignments[eventID]; ok {
		delete(byEvent, organizerID)
	}
	return nil
}

func (r *MemoryRepository) IsOrganizerAssigned(ctx context.Context, eventID, organizerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byEvent, ok := r.assignments[eventID]
	if !ok {
		return false, nil
	}
	_, assigned := byEvent[organizerID]
	return assigned, nil
}

func (r *MemoryRepository) ListOrganizersByEvent(ctx context.Context, eventID string) ([]models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var accounts []models.Account
	for organizerID := range r.assignments[eventID] {
		if account, ok := r.accounts[organizerID]; ok {
			accounts = append(accounts, *account)
		}
	}
	sortAccounts(accounts)
	return accounts, nil
}

func (r *MemoryRepository) ListActiveEventsByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []models.Event
	for eventID, byEvent := range r.assignments {
		if _, ok := byEvent[organizerID]; !ok {
			continue
		}
		if event, exists := r.events[eventID]; exists && event.IsActive {
			events = append(events, *event)
		}
	}
	sortEvents(events)
	return events, nil
}

// Audit trail operations
func (r *MemoryRepository) AppendAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	r.auditLogs = append(r.auditLogs, *entry)
	return nil
}

func (r *MemoryRepository) ListAuditLogsByEvent(ctx context.Context, eventID string) ([]models.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []models.AuditLogEntry
	// Append order is oldest-first; walk backwards for newest-first.
	for i := len(r.auditLogs) - 1; i >= 0; i-- {
		if r.auditLogs[i].EventID == eventID {
			entries = append(entries, r.auditLogs[i])
		}
	}
	return entries, nil
}

func sortAccounts(accounts []models.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
}

func sortEvents(events []models.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
}
