package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gatepass/gatepass-server/internal/models"
)

// CreateEvent creates an event owned by the calling event manager. The
// quota is advisory: creation is never blocked once it is exhausted, the
// balance only shows up in reporting.
func (s *DefaultService) CreateEvent(
	ctx context.Context,
	actor *models.Account,
	req models.CreateEventRequest,
) (*models.Event, error) {
	if actor.Role != models.RoleEventManager {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErr("name", "must not be empty")
	}
	if strings.TrimSpace(req.EventDate) == "" {
		return nil, validationErr("eventDate", "must not be empty")
	}

	event := &models.Event{
		Name:           req.Name,
		Description:    req.Description,
		Location:       req.Location,
		EventDate:      req.EventDate,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		EventManagerID: actor.ID,
		IsActive:       true,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	if actor.EventsRemaining() == 0 {
		s.logger.Warn("event created past quota",
			zap.String("manager_id", actor.ID),
			zap.Int("event_quota", actor.EventQuota))
	}

	return event, nil
}

// getOwnedEvent loads an event and enforces the ownership rule for
// event-scoped mutations: an event manager may only touch its own events.
func (s *DefaultService) getOwnedEvent(ctx context.Context, actor *models.Account, eventID string) (*models.Event, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error getting event: %w", err)
	}

	if event == nil {
		return nil, ErrNotFound
	}

	if actor.Role != models.RoleEventManager || event.EventManagerID != actor.ID {
		return nil, ErrForbidden
	}

	return event, nil
}

func (s *DefaultService) GetEvent(ctx context.Context, actor *models.Account, eventID string) (*models.Event, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error getting event: %w", err)
	}

	if event == nil {
		return nil, ErrNotFound
	}

	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return event, nil
	case models.RoleEventManager:
		if event.EventManagerID == actor.ID {
			return event, nil
		}
	case models.RoleOrganizer:
		assigned, err := s.repo.IsOrganizerAssigned(ctx, eventID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking assignment: %w", err)
		}
		if assigned && event.IsActive {
			return event, nil
		}
	}
	return nil, ErrForbidden
}

// ListEvents is role-scoped: admins see everything, event managers see
// their own events, organizers see the active events they are assigned to.
func (s *DefaultService) ListEvents(ctx context.Context, actor *models.Account) ([]models.Event, error) {
	var events []models.Event
	var err error

	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		events, err = s.repo.ListAllEvents(ctx)
	case models.RoleEventManager:
		events, err = s.repo.ListEventsByManager(ctx, actor.ID)
	case models.RoleOrganizer:
		events, err = s.repo.ListActiveEventsByOrganizer(ctx, actor.ID)
	default:
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}

	return events, nil
}

func (s *DefaultService) UpdateEvent(
	ctx context.Context,
	actor *models.Account,
	eventID string,
	req models.UpdateEventRequest,
) (*models.Event, error) {
	event, err := s.getOwnedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, validationErr("name", "must not be empty")
		}
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.EventDate != nil {
		if strings.TrimSpace(*req.EventDate) == "" {
			return nil, validationErr("eventDate", "must not be empty")
		}
		event.EventDate = *req.EventDate
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error updating event: %w", err)
	}

	s.recordAudit(ctx, event.ID, actor.ID, models.ActionEventUpdated, "event details updated", nil)
	return event, nil
}

// DeleteEvent removes an event and its dependent records. The owning
// manager's quota consumption is not returned.
func (s *DefaultService) DeleteEvent(ctx context.Context, actor *models.Account, eventID string) error {
	event, err := s.getOwnedEvent(ctx, actor, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteEvent(ctx, event.ID); err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}

	return nil
}

// AssignOrganizer grants an organizer check-in rights over an event.
// Assigning the same pair twice is a no-op.
func (s *DefaultService) AssignOrganizer(ctx context.Context, actor *models.Account, eventID, organizerID string) error {
	event, err := s.getOwnedEvent(ctx, actor, eventID)
	if err != nil {
		return err
	}

	organizer, err := s.repo.GetAccountByID(ctx, organizerID)
	if err != nil {
		return fmt.Errorf("error getting organizer: %w", err)
	}
	if organizer == nil {
		return ErrNotFound
	}
	if organizer.Role != models.RoleOrganizer {
		return validationErr("organizerId", "account is not an organizer")
	}

	if err := s.repo.AddAssignment(ctx, event.ID, organizer.ID); err != nil {
		return fmt.Errorf("error assigning organizer: %w", err)
	}

	s.recordAudit(ctx, event.ID, actor.ID, models.ActionOrganizerAdded,
		fmt.Sprintf("organizer %s assigned", organizer.Username), nil)
	return nil
}

// RemoveOrganizer is idempotent: removing an absent pair is not an error.
func (s *DefaultService) RemoveOrganizer(ctx context.Context, actor *models.Account, eventID, organizerID string) error {
	event, err := s.getOwnedEvent(ctx, actor, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.RemoveAssignment(ctx, event.ID, organizerID); err != nil {
		return fmt.Errorf("error removing organizer: %w", err)
	}

	s.recordAudit(ctx, event.ID, actor.ID, models.ActionOrganizerRemoved,
		fmt.Sprintf("organizer %s removed", organizerID), nil)
	return nil
}

func (s *DefaultService) ListEventOrganizers(
	ctx context.Context,
	actor *models.Account,
	eventID string,
) ([]models.AccountPublic, error) {
	_, err := s.getOwnedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}

	organizers, err := s.repo.ListOrganizersByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing organizers: %w", err)
	}

	public := make([]models.AccountPublic, 0, len(organizers))
	for i := range organizers {
		public = append(public, organizers[i].ToPublic())
	}
	return public, nil
}
