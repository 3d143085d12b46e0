package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepass/gatepass-server/internal/api/testutils"
	"github.com/gatepass/gatepass-server/internal/models"
)

// TestConcurrentCheckIn drives simultaneous first-time scans of the same
// guest from different actors. Exactly one scan may win; every other scan
// must observe Duplicate, and the stored check-in identity must belong to
// the winner.
func TestConcurrentCheckIn(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	fixture := tc.SetupStaffedEvent(t, []models.GuestRow{
		{Name: "Contested Guest", Phone: "0400000042"},
	})
	guest := fixture.Guests[0]

	// A squad of organizers, all assigned to the event.
	const numScanners = 8
	tokens := make(map[string]string, numScanners) // organizer id -> jwt
	for i := 0; i < numScanners; i++ {
		organizer := tc.CreateAccount(t, fixture.ManagerJWT, models.CreateAccountRequest{
			Username: fmt.Sprintf("scanner-%d", i),
			Name:     fmt.Sprintf("Scanner %d", i),
			Role:     string(models.RoleOrganizer),
		})

		w := testutils.PerformRequest(tc.Router, http.MethodPost,
			"/api/events/"+fixture.Event.ID+"/organizers",
			models.AssignOrganizerRequest{OrganizerID: organizer.ID},
			testutils.AuthHeaders(fixture.ManagerJWT))
		require.Equal(t, http.StatusOK, w.Code)

		tokens[organizer.ID] = tc.LoginToken(t, organizer.Username)
	}

	type scanOutcome struct {
		actorID string
		result  models.CheckInResult
	}

	outcomes := make(chan scanOutcome, numScanners)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for actorID, token := range tokens {
		wg.Add(1)
		go func(actorID, token string) {
			defer wg.Done()
			<-start

			w := testutils.PerformRequest(tc.Router, http.MethodPost,
				"/api/guests/"+guest.ID+"/checkin", nil, testutils.AuthHeaders(token))
			assert.Equal(t, http.StatusOK, w.Code)

			var result models.CheckInResult
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				t.Errorf("unmarshal check-in result: %v", err)
				return
			}
			outcomes <- scanOutcome{actorID: actorID, result: result}
		}(actorID, token)
	}

	close(start)
	wg.Wait()
	close(outcomes)

	var winnerID string
	successes, duplicates := 0, 0
	for outcome := range outcomes {
		switch outcome.result.Status {
		case models.CheckInSuccess:
			successes++
			winnerID = outcome.actorID
		case models.CheckInDuplicate:
			duplicates++
		default:
			t.Errorf("unexpected check-in status %q", outcome.result.Status)
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent scan may succeed")
	assert.Equal(t, numScanners-1, duplicates)

	// The stored identity must be the winner's, never overwritten by a
	// losing scan.
	stored, err := tc.Repository.GetGuestByID(context.Background(), guest.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsCheckedIn)
	require.NotNil(t, stored.CheckedInBy)
	assert.Equal(t, winnerID, *stored.CheckedInBy)
	assert.NotNil(t, stored.CheckedInAt)

	// One Success means one audit entry, no matter how many scans raced.
	entries, err := tc.Repository.ListAuditLogsByEvent(context.Background(), fixture.Event.ID)
	require.NoError(t, err)
	checkIns := 0
	for _, entry := range entries {
		if entry.Action == models.ActionCheckIn {
			checkIns++
		}
	}
	assert.Equal(t, 1, checkIns)
}
