package service

import (
	"context"
	"fmt"

	"github.com/gatepass/gatepass-server/internal/models"
)

// GetAuditLog returns an event's audit trail, newest entries first. The
// owning manager and the admin tiers may read it.
func (s *DefaultService) GetAuditLog(ctx context.Context, actor *models.Account, eventID string) ([]models.AuditLogEntry, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}

	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
	case models.RoleEventManager:
		if event.EventManagerID != actor.ID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	entries, err := s.repo.ListAuditLogsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing audit logs: %w", err)
	}
	return entries, nil
}

// GetStats returns role-scoped aggregate counts. Each role gets a
// different shape: the admin tiers see account and event totals, an event
// manager sees its own quota balance and guest progress, an organizer sees
// its assigned events.
func (s *DefaultService) GetStats(ctx context.Context, actor *models.Account) (*models.StatsResponse, error) {
	stats := &models.StatsResponse{
		Status: "success",
		Role:   actor.Role,
	}

	switch actor.Role {
	case models.RoleSuperAdmin:
		admins, err := s.repo.CountAccountsByRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("error counting admins: %w", err)
		}
		stats.Admins = &admins
		if err := s.fillAdminStats(ctx, stats); err != nil {
			return nil, err
		}

	case models.RoleAdmin:
		if err := s.fillAdminStats(ctx, stats); err != nil {
			return nil, err
		}

	case models.RoleEventManager:
		events, err := s.repo.ListEventsByManager(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing events: %w", err)
		}
		eventCount := len(events)
		stats.Events = &eventCount

		organizers, err := s.repo.ListAccountsByCreator(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing organizers: %w", err)
		}
		organizerCount := len(organizers)
		stats.Organizers = &organizerCount

		quota := actor.EventQuota
		used := actor.EventsUsed
		remaining := actor.EventsRemaining()
		stats.EventQuota = &quota
		stats.EventsUsed = &used
		stats.EventsRemaining = &remaining

		if err := s.fillGuestStats(ctx, stats, events); err != nil {
			return nil, err
		}

	case models.RoleOrganizer:
		events, err := s.repo.ListActiveEventsByOrganizer(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing assigned events: %w", err)
		}
		assigned := len(events)
		stats.AssignedEvents = &assigned

		if err := s.fillGuestStats(ctx, stats, events); err != nil {
			return nil, err
		}

	default:
		return nil, ErrForbidden
	}

	return stats, nil
}

func (s *DefaultService) fillAdminStats(ctx context.Context, stats *models.StatsResponse) error {
	managers, err := s.repo.CountAccountsByRole(ctx, models.RoleEventManager)
	if err != nil {
		return fmt.Errorf("error counting event managers: %w", err)
	}
	stats.EventManagers = &managers

	organizers, err := s.repo.CountAccountsByRole(ctx, models.RoleOrganizer)
	if err != nil {
		return fmt.Errorf("error counting organizers: %w", err)
	}
	stats.Organizers = &organizers

	events, err := s.repo.CountAllEvents(ctx)
	if err != nil {
		return fmt.Errorf("error counting events: %w", err)
	}
	stats.Events = &events
	return nil
}

func (s *DefaultService) fillGuestStats(ctx context.Context, stats *models.StatsResponse, events []models.Event) error {
	ids := make([]string, 0, len(events))
	for i := range events {
		ids = append(ids, events[i].ID)
	}

	total, checkedIn, err := s.repo.CountGuestsByEvents(ctx, ids)
	if err != nil {
		return fmt.Errorf("error counting guests: %w", err)
	}
	stats.Guests = &total
	stats.CheckedIn = &checkedIn
	return nil
}
