package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatepass/gatepass-server/internal/models"
)

// UploadGuests creates guests for an event from a list of rows. Rows are
// handled leniently: missing name/phone become empty strings, unknown
// categories fall back to regular, negative companion counts are clamped
// to zero. No row ever fails the upload.
func (s *DefaultService) UploadGuests(
	ctx context.Context,
	actor *models.Account,
	eventID string,
	rows []models.GuestRow,
) (*models.UploadGuestsResponse, error) {
	event, err := s.getOwnedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	guests := make([]models.Guest, 0, len(rows))
	for _, row := range rows {
		companions := row.Companions
		if companions < 0 {
			companions = 0
		}
		guests = append(guests, models.Guest{
			ID:         uuid.New().String(),
			EventID:    event.ID,
			Name:       strings.TrimSpace(row.Name),
			Phone:      strings.TrimSpace(row.Phone),
			Category:   models.NormalizeCategory(row.Category),
			Companions: companions,
			Notes:      row.Notes,
			QRCode:     uuid.New().String(),
			CreatedAt:  now,
		})
	}

	if err := s.repo.CreateGuests(ctx, guests); err != nil {
		return nil, fmt.Errorf("error creating guests: %w", err)
	}

	s.recordAudit(ctx, event.ID, actor.ID, models.ActionGuestUpload,
		fmt.Sprintf("uploaded %d guests", len(guests)), nil)

	return &models.UploadGuestsResponse{
		Status:  "success",
		Created: len(guests),
		Guests:  guests,
	}, nil
}

// ListGuests returns an event's guest list to its owning manager or to an
// assigned organizer.
func (s *DefaultService) ListGuests(ctx context.Context, actor *models.Account, eventID string) ([]models.Guest, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}

	if err := s.checkEventAccess(ctx, actor, event); err != nil {
		return nil, err
	}

	guests, err := s.repo.ListGuestsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("error listing guests: %w", err)
	}
	return guests, nil
}

func (s *DefaultService) DeleteGuest(ctx context.Context, actor *models.Account, guestID string) error {
	guest, err := s.repo.GetGuestByID(ctx, guestID)
	if err != nil {
		return fmt.Errorf("error getting guest: %w", err)
	}
	if guest == nil {
		return ErrNotFound
	}

	if _, err := s.getOwnedEvent(ctx, actor, guest.EventID); err != nil {
		return err
	}

	if err := s.repo.DeleteGuest(ctx, guest.ID); err != nil {
		return fmt.Errorf("error deleting guest: %w", err)
	}

	s.recordAudit(ctx, guest.EventID, actor.ID, models.ActionGuestDeleted,
		fmt.Sprintf("guest %s deleted", guest.Name), &guest.ID)
	return nil
}

// checkEventAccess enforces who may work a guest list: the owning event
// manager, or an organizer assigned to the event. Everyone else is
// forbidden, admins included — the door is staffed by the event team.
func (s *DefaultService) checkEventAccess(ctx context.Context, actor *models.Account, event *models.Event) error {
	switch actor.Role {
	case models.RoleEventManager:
		if event.EventManagerID == actor.ID {
			return nil
		}
	case models.RoleOrganizer:
		assigned, err := s.repo.IsOrganizerAssigned(ctx, event.ID, actor.ID)
		if err != nil {
			return fmt.Errorf("error checking assignment: %w", err)
		}
		if assigned {
			return nil
		}
	}
	return ErrForbidden
}

// CheckInGuest attempts the invited → checked-in transition for one guest.
// The outcome is three-way:
//
//   - Success:   this call performed the transition.
//   - Duplicate: the guest was already checked in; the original time and
//     actor name are returned and nothing is mutated.
//   - Invalid:   the guest id does not resolve.
//
// A re-scan of a used code must never overwrite the original check-in
// identity, so the transition itself is a conditional write in the store:
// under two concurrent first-time scans exactly one caller gets Success.
func (s *DefaultService) CheckInGuest(ctx context.Context, actor *models.Account, guestID string) (*models.CheckInResult, error) {
	guest, err := s.repo.GetGuestByID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("error getting guest: %w", err)
	}
	if guest == nil {
		return &models.CheckInResult{
			Status:  models.CheckInInvalid,
			Message: "guest not found",
		}, nil
	}

	return s.checkIn(ctx, actor, guest)
}

// CheckInByCode resolves a scanned check-in token to its guest first. An
// unknown token is Invalid, same as an unknown guest id.
func (s *DefaultService) CheckInByCode(ctx context.Context, actor *models.Account, code string) (*models.CheckInResult, error) {
	guest, err := s.repo.GetGuestByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("error getting guest: %w", err)
	}
	if guest == nil {
		return &models.CheckInResult{
			Status:  models.CheckInInvalid,
			Message: "guest not found",
		}, nil
	}

	return s.checkIn(ctx, actor, guest)
}

func (s *DefaultService) checkIn(ctx context.Context, actor *models.Account, guest *models.Guest) (*models.CheckInResult, error) {
	event, err := s.repo.GetEventByID(ctx, guest.EventID)
	if err != nil {
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	if event == nil {
		return &models.CheckInResult{
			Status:  models.CheckInInvalid,
			Message: "event not found",
		}, nil
	}

	if err := s.checkEventAccess(ctx, actor, event); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := s.repo.CheckInGuest(ctx, guest.ID, actor.ID, now)
	if err != nil {
		return nil, fmt.Errorf("error checking in guest: %w", err)
	}

	if !updated {
		// Lost the transition: either the guest was already checked in, or
		// a concurrent first scan won. Either way report Duplicate with
		// the stored check-in identity, and write no audit entry.
		return s.duplicateResult(ctx, guest.ID)
	}

	guest.IsCheckedIn = true
	guest.CheckedInAt = &now
	guest.CheckedInBy = &actor.ID

	s.recordAudit(ctx, event.ID, actor.ID, models.ActionCheckIn,
		fmt.Sprintf("guest %s checked in", guest.Name), &guest.ID)

	return &models.CheckInResult{
		Status: models.CheckInSuccess,
		Guest:  guest,
	}, nil
}

// duplicateResult re-reads the guest to report the original check-in time
// and the name of the original actor ("unknown" if that account no longer
// resolves).
func (s *DefaultService) duplicateResult(ctx context.Context, guestID string) (*models.CheckInResult, error) {
	guest, err := s.repo.GetGuestByID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("error getting guest: %w", err)
	}
	if guest == nil || !guest.IsCheckedIn {
		return &models.CheckInResult{
			Status:  models.CheckInInvalid,
			Message: "guest not found",
		}, nil
	}

	checkedInName := "unknown"
	if guest.CheckedInBy != nil {
		account, err := s.repo.GetAccountByID(ctx, *guest.CheckedInBy)
		if err != nil {
			return nil, fmt.Errorf("error getting account: %w", err)
		}
		if account != nil {
			checkedInName = account.Name
		}
	}

	var checkedInAt *string
	if guest.CheckedInAt != nil {
		formatted := guest.CheckedInAt.Format(time.RFC3339)
		checkedInAt = &formatted
	}

	return &models.CheckInResult{
		Status:        models.CheckInDuplicate,
		Message:       "guest already checked in",
		Guest:         guest,
		CheckedInAt:   checkedInAt,
		CheckedInName: checkedInName,
	}, nil
}
