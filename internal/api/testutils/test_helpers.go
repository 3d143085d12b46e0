package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatepass/gatepass-server/internal/api"
	"github.com/gatepass/gatepass-server/internal/models"
	"github.com/gatepass/gatepass-server/internal/repository"
	"github.com/gatepass/gatepass-server/internal/service"
)

const (
	// TestPassword is the password used for every account the harness creates.
	TestPassword = "testpassword"

	jwtSecret = "test-secret-key"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository *repository.MemoryRepository
	Service    service.Service
	RootID     string
	RootJWT    string
}

// SetupTestContext creates a new test context backed by the in-memory
// store, with the root super_admin already seeded and logged in.
func SetupTestContext(t *testing.T) *TestContext {
	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, jwtSecret, zap.NewNop())

	require.NoError(t, svc.EnsureRootAccount(context.Background(), "root", TestPassword, "Root Administrator"))

	root, err := repo.GetAccountByUsername(context.Background(), "root")
	require.NoError(t, err)
	require.NotNil(t, root)

	handler := api.NewHandler(svc, zap.NewNop())

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Same wiring as main: the middleware reads the secret from context.
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(jwtSecret))
		c.Next()
	})

	handler.SetupRoutes(router)

	tc := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		RootID:     root.ID,
	}
	tc.RootJWT = tc.LoginToken(t, "root")
	return tc
}

// LoginToken logs a harness-created account in and returns its JWT.
func (tc *TestContext) LoginToken(t *testing.T, username string) string {
	w := PerformRequest(tc.Router, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Username: username,
		Password: TestPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed for %s: %s", username, w.Body.String())

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// CreateAccount creates an account through the API as the given actor and
// returns its public record.
func (tc *TestContext) CreateAccount(t *testing.T, actorJWT string, req models.CreateAccountRequest) models.AccountPublic {
	if req.Password == "" {
		req.Password = TestPassword
	}
	w := PerformRequest(tc.Router, http.MethodPost, "/api/accounts", req, AuthHeaders(actorJWT))
	require.Equal(t, http.StatusCreated, w.Code, "create account failed: %s", w.Body.String())

	var resp struct {
		Account models.AccountPublic `json:"account"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Account
}

// CreateEvent creates an event through the API as the given manager.
func (tc *TestContext) CreateEvent(t *testing.T, managerJWT string, req models.CreateEventRequest) models.Event {
	w := PerformRequest(tc.Router, http.MethodPost, "/api/events", req, AuthHeaders(managerJWT))
	require.Equal(t, http.StatusCreated, w.Code, "create event failed: %s", w.Body.String())

	var resp struct {
		Event models.Event `json:"event"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Event
}

// UploadGuests uploads guest rows through the API as the given manager.
func (tc *TestContext) UploadGuests(t *testing.T, managerJWT, eventID string, rows []models.GuestRow) []models.Guest {
	w := PerformRequest(tc.Router, http.MethodPost,
		fmt.Sprintf("/api/events/%s/guests", eventID),
		models.UploadGuestsRequest{Guests: rows}, AuthHeaders(managerJWT))
	require.Equal(t, http.StatusCreated, w.Code, "upload guests failed: %s", w.Body.String())

	var resp models.UploadGuestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Guests
}

// StaffedEvent is a ready-made fixture: one event manager with an event,
// one organizer created by that manager (not yet assigned), and a guest
// list.
type StaffedEvent struct {
	ManagerID    string
	ManagerJWT   string
	OrganizerID  string
	OrganizerJWT string
	Event        models.Event
	Guests       []models.Guest
}

// SetupStaffedEvent builds the standard fixture most suites start from.
func (tc *TestContext) SetupStaffedEvent(t *testing.T, rows []models.GuestRow) *StaffedEvent {
	manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "manager-" + t.Name(),
		Name:     "Event Manager",
		Role:     string(models.RoleEventManager),
	})
	managerJWT := tc.LoginToken(t, manager.Username)

	organizer := tc.CreateAccount(t, managerJWT, models.CreateAccountRequest{
		Username: "organizer-" + t.Name(),
		Name:     "Door Organizer",
		Role:     string(models.RoleOrganizer),
	})
	organizerJWT := tc.LoginToken(t, organizer.Username)

	event := tc.CreateEvent(t, managerJWT, models.CreateEventRequest{
		Name:      "Launch Party",
		EventDate: "2026-09-12",
	})

	var guests []models.Guest
	if len(rows) > 0 {
		guests = tc.UploadGuests(t, managerJWT, event.ID, rows)
	}

	return &StaffedEvent{
		ManagerID:    manager.ID,
		ManagerJWT:   managerJWT,
		OrganizerID:  organizer.ID,
		OrganizerJWT: organizerJWT,
		Event:        event,
		Guests:       guests,
	}
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
