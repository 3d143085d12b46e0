package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepass/gatepass-server/internal/api/testutils"
	"github.com/gatepass/gatepass-server/internal/models"
)

func TestCreateEvent(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "event-manager",
		Name:     "Event Manager",
		Role:     string(models.RoleEventManager),
	})
	managerJWT := tc.LoginToken(t, manager.Username)

	t.Run("Success", func(t *testing.T) {
		event := tc.CreateEvent(t, managerJWT, models.CreateEventRequest{
			Name:      "Annual Gala",
			EventDate: "2026-10-01",
			Location:  "Grand Hall",
		})
		assert.Equal(t, manager.ID, event.EventManagerID)
		assert.True(t, event.IsActive)
	})

	t.Run("RequiresNameAndDate", func(t *testing.T) {
		w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/events",
			models.CreateEventRequest{EventDate: "2026-10-01"}, testutils.AuthHeaders(managerJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/events",
			models.CreateEventRequest{Name: "No Date"}, testutils.AuthHeaders(managerJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("OnlyEventManagersCreateEvents", func(t *testing.T) {
		w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/events",
			models.CreateEventRequest{Name: "Rogue Event", EventDate: "2026-10-01"},
			testutils.AuthHeaders(tc.RootJWT))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestQuotaIsAdvisory(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	quota := 5
	manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username:   "advisory-manager",
		Name:       "Advisory Manager",
		Role:       string(models.RoleEventManager),
		EventQuota: &quota,
	})
	managerJWT := tc.LoginToken(t, manager.Username)

	getAccount := func() models.AccountPublic {
		w := testutils.PerformRequest(tc.Router, http.MethodGet,
			"/api/accounts/"+manager.ID, nil, testutils.AuthHeaders(tc.RootJWT))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Account models.AccountPublic `json:"account"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Account
	}

	for i := 0; i < 3; i++ {
		tc.CreateEvent(t, managerJWT, models.CreateEventRequest{
			Name:      fmt.Sprintf("Event %d", i),
			EventDate: "2026-11-01",
		})
	}

	account := getAccount()
	assert.Equal(t, 3, account.EventsUsed)
	assert.Equal(t, 2, account.EventsRemaining)

	// Creation past the quota still succeeds; the balance just bottoms
	// out at zero.
	for i := 3; i < 6; i++ {
		tc.CreateEvent(t, managerJWT, models.CreateEventRequest{
			Name:      fmt.Sprintf("Event %d", i),
			EventDate: "2026-11-01",
		})
	}

	account = getAccount()
	assert.Equal(t, 6, account.EventsUsed)
	assert.Equal(t, 0, account.EventsRemaining)
}

func TestQuotaConsumptionSurvivesDeletion(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	fixture := tc.SetupStaffedEvent(t, nil)

	w := testutils.PerformRequest(tc.Router, http.MethodDelete,
		"/api/events/"+fixture.Event.ID, nil, testutils.AuthHeaders(fixture.ManagerJWT))
	require.Equal(t, http.StatusOK, w.Code)

	accountResp := testutils.PerformRequest(tc.Router, http.MethodGet,
		"/api/accounts/"+fixture.ManagerID, nil, testutils.AuthHeaders(tc.RootJWT))
	require.Equal(t, http.StatusOK, accountResp.Code)

	var resp struct {
		Account models.AccountPublic `json:"account"`
	}
	require.NoError(t, json.Unmarshal(accountResp.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Account.EventsUsed, "deleting an event must not refund quota")
}

func TestEventOwnership(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	fixture := tc.SetupStaffedEvent(t, nil)

	intruder := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "intruder-manager",
		Name:     "Intruder Manager",
		Role:     string(models.RoleEventManager),
	})
	intruderJWT := tc.LoginToken(t, intruder.Username)

	newName := "Hijacked"
	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"Update", http.MethodPut, "/api/events/" + fixture.Event.ID, models.UpdateEventRequest{Name: &newName}},
		{"Delete", http.MethodDelete, "/api/events/" + fixture.Event.ID, nil},
		{"UploadGuests", http.MethodPost, "/api/events/" + fixture.Event.ID + "/guests",
			models.UploadGuestsRequest{Guests: []models.GuestRow{{Name: "Walk-in"}}}},
		{"Assign", http.MethodPost, "/api/events/" + fixture.Event.ID + "/organizers",
			models.AssignOrganizerRequest{OrganizerID: fixture.OrganizerID}},
		{"AuditLog", http.MethodGet, "/api/events/" + fixture.Event.ID + "/audit", nil},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			w := testutils.PerformRequest(tc.Router, c.method, c.path, c.body, testutils.AuthHeaders(intruderJWT))
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		})
	}
}

func TestOrganizerAssignment(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	fixture := tc.SetupStaffedEvent(t, nil)

	assign := func() *httptest.ResponseRecorder {
		return testutils.PerformRequest(tc.Router, http.MethodPost,
			"/api/events/"+fixture.Event.ID+"/organizers",
			models.AssignOrganizerRequest{OrganizerID: fixture.OrganizerID},
			testutils.AuthHeaders(fixture.ManagerJWT))
	}
	remove := func() *httptest.ResponseRecorder {
		return testutils.PerformRequest(tc.Router, http.MethodDelete,
			"/api/events/"+fixture.Event.ID+"/organizers/"+fixture.OrganizerID,
			nil, testutils.AuthHeaders(fixture.ManagerJWT))
	}

	t.Run("AssignIsIdempotent", func(t *testing.T) {
		require.Equal(t, http.StatusOK, assign().Code)
		require.Equal(t, http.StatusOK, assign().Code)

		w := testutils.PerformRequest(tc.Router, http.MethodGet,
			"/api/events/"+fixture.Event.ID+"/organizers", nil,
			testutils.AuthHeaders(fixture.ManagerJWT))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Organizers []models.AccountPublic `json:"organizers"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Organizers, 1)
	})

	t.Run("RemoveIsIdempotent", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, remove().Code)
		assert.Equal(t, http.StatusOK, remove().Code)
	})

	t.Run("CannotAssignNonOrganizer", func(t *testing.T) {
		w := testutils.PerformRequest(tc.Router, http.MethodPost,
			"/api/events/"+fixture.Event.ID+"/organizers",
			models.AssignOrganizerRequest{OrganizerID: fixture.ManagerID},
			testutils.AuthHeaders(fixture.ManagerJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrganizerSeesOnlyActiveAssignedEvents(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	fixture := tc.SetupStaffedEvent(t, nil)

	w := testutils.PerformRequest(tc.Router, http.MethodPost,
		"/api/events/"+fixture.Event.ID+"/organizers",
		models.AssignOrganizerRequest{OrganizerID: fixture.OrganizerID},
		testutils.AuthHeaders(fixture.ManagerJWT))
	require.Equal(t, http.StatusOK, w.Code)

	listEvents := func() []models.Event {
		w := testutils.PerformRequest(tc.Router, http.MethodGet, "/api/events", nil,
			testutils.AuthHeaders(fixture.OrganizerJWT))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Events []models.Event `json:"events"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Events
	}

	require.Len(t, listEvents(), 1)

	// Deactivating the event hides it from the organizer even though the
	// assignment is still there.
	inactive := false
	w = testutils.PerformRequest(tc.Router, http.MethodPut, "/api/events/"+fixture.Event.ID,
		models.UpdateEventRequest{IsActive: &inactive}, testutils.AuthHeaders(fixture.ManagerJWT))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, listEvents(), 0)
}
