package api_test

import (
	"context"
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

// setupRoleActors creates one logged-in account per role and returns their
// tokens keyed by role.
func setupRoleActors(t *testing.T, tc *testutils.TestContext) map[models.Role]string {
	admin := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "matrix-admin",
		Name:     "Matrix Admin",
		Role:     string(models.RoleAdmin),
	})
	manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "matrix-manager",
		Name:     "Matrix Manager",
		Role:     string(models.RoleEventManager),
	})
	managerJWT := tc.LoginToken(t, manager.Username)
	organizer := tc.CreateAccount(t, managerJWT, models.CreateAccountRequest{
		Username: "matrix-organizer",
		Name:     "Matrix Organizer",
		Role:     string(models.RoleOrganizer),
	})

	return map[models.Role]string{
		models.RoleSuperAdmin:   tc.RootJWT,
		models.RoleAdmin:        tc.LoginToken(t, admin.Username),
		models.RoleEventManager: managerJWT,
		models.RoleOrganizer:    tc.LoginToken(t, organizer.Username),
	}
}

func TestCreateAccountRoleMatrix(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	tokens := setupRoleActors(t, tc)

	allowed := map[[2]models.Role]bool{
		{models.RoleSuperAdmin, models.RoleAdmin}:        true,
		{models.RoleSuperAdmin, models.RoleEventManager}: true,
		{models.RoleAdmin, models.RoleEventManager}:      true,
		{models.RoleEventManager, models.RoleOrganizer}:  true,
	}

	roles := []models.Role{
		models.RoleSuperAdmin, models.RoleAdmin, models.RoleEventManager, models.RoleOrganizer,
	}

	for i, actorRole := range roles {
		for j, targetRole := range roles {
			actorRole, targetRole := actorRole, targetRole
			name := fmt.Sprintf("%s_creates_%s", actorRole, targetRole)
			username := fmt.Sprintf("matrix-target-%d-%d", i, j)

			t.Run(name, func(t *testing.T) {
				w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/accounts",
					models.CreateAccountRequest{
						Username: username,
						Password: testutils.TestPassword,
						Name:     "Matrix Target",
						Role:     string(targetRole),
					}, testutils.AuthHeaders(tokens[actorRole]))

				if allowed[[2]models.Role{actorRole, targetRole}] {
					require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

					var resp struct {
						Account models.AccountPublic `json:"account"`
					}
					require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
					assert.Equal(t, targetRole, resp.Account.Role)
					assert.NotNil(t, resp.Account.CreatedBy)
				} else {
					assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

					// No account may exist for the rejected username.
					account, err := tc.Repository.GetAccountByUsername(context.Background(), username)
					require.NoError(t, err)
					assert.Nil(t, account)
				}
			})
		}
	}
}

func TestCreateAccountDuplicateUsername(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	first := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "taken",
		Name:     "First Holder",
		Role:     string(models.RoleAdmin),
	})

	w := testutils.PerformRequest(tc.Router, http.MethodPost, "/api/accounts",
		models.CreateAccountRequest{
			Username: "taken",
			Password: testutils.TestPassword,
			Name:     "Second Holder",
			Role:     string(models.RoleAdmin),
		}, testutils.AuthHeaders(tc.RootJWT))

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DUPLICATE_USERNAME", resp.Code)

	// Username matching is case-sensitive: a different casing is a
	// different username.
	w = testutils.PerformRequest(tc.Router, http.MethodPost, "/api/accounts",
		models.CreateAccountRequest{
			Username: "Taken",
			Password: testutils.TestPassword,
			Name:     "Cased Holder",
			Role:     string(models.RoleAdmin),
		}, testutils.AuthHeaders(tc.RootJWT))
	assert.Equal(t, http.StatusCreated, w.Code)

	// Exactly one account holds the original username.
	account, err := tc.Repository.GetAccountByUsername(context.Background(), "taken")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, first.ID, account.ID)
}

func TestEventManagerQuotaBounds(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	createWithQuota := func(username string, quota int) *httptest.ResponseRecorder {
		return testutils.PerformRequest(tc.Router, http.MethodPost, "/api/accounts",
			models.CreateAccountRequest{
				Username:   username,
				Password:   testutils.TestPassword,
				Name:       "Quota Manager",
				Role:       string(models.RoleEventManager),
				EventQuota: &quota,
			}, testutils.AuthHeaders(tc.RootJWT))
	}

	t.Run("BelowMinimum", func(t *testing.T) {
		w := createWithQuota("quota-zero", 0)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_QUOTA", resp.Code)
	})

	t.Run("AboveMaximum", func(t *testing.T) {
		w := createWithQuota("quota-overflow", 101)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AtBounds", func(t *testing.T) {
		assert.Equal(t, http.StatusCreated, createWithQuota("quota-min", 1).Code)
		assert.Equal(t, http.StatusCreated, createWithQuota("quota-max", 100).Code)
	})

	t.Run("DefaultWhenOmitted", func(t *testing.T) {
		manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
			Username: "quota-default",
			Name:     "Default Quota",
			Role:     string(models.RoleEventManager),
		})
		assert.Equal(t, 10, manager.EventQuota)
	})

	t.Run("UpdateRevalidates", func(t *testing.T) {
		manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
			Username: "quota-updated",
			Name:     "Updated Quota",
			Role:     string(models.RoleEventManager),
		})

		bad := 200
		w := testutils.PerformRequest(tc.Router, http.MethodPatch, "/api/accounts/"+manager.ID,
			models.UpdateAccountRequest{EventQuota: &bad}, testutils.AuthHeaders(tc.RootJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		good := 42
		w = testutils.PerformRequest(tc.Router, http.MethodPatch, "/api/accounts/"+manager.ID,
			models.UpdateAccountRequest{EventQuota: &good}, testutils.AuthHeaders(tc.RootJWT))
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Account models.AccountPublic `json:"account"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 42, resp.Account.EventQuota)
	})

	t.Run("ManagerCannotEditOwnQuota", func(t *testing.T) {
		manager := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
			Username: "quota-selfish",
			Name:     "Selfish Manager",
			Role:     string(models.RoleEventManager),
		})
		managerJWT := tc.LoginToken(t, manager.Username)

		more := 100
		w := testutils.PerformRequest(tc.Router, http.MethodPatch, "/api/accounts/"+manager.ID,
			models.UpdateAccountRequest{EventQuota: &more}, testutils.AuthHeaders(managerJWT))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAccountVisibility(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	managerA := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "visibility-manager-a",
		Name:     "Manager A",
		Role:     string(models.RoleEventManager),
	})
	managerB := tc.CreateAccount(t, tc.RootJWT, models.CreateAccountRequest{
		Username: "visibility-manager-b",
		Name:     "Manager B",
		Role:     string(models.RoleEventManager),
	})
	jwtA := tc.LoginToken(t, managerA.Username)
	jwtB := tc.LoginToken(t, managerB.Username)

	orgA := tc.CreateAccount(t, jwtA, models.CreateAccountRequest{
		Username: "visibility-org-a",
		Name:     "Organizer A",
		Role:     string(models.RoleOrganizer),
	})
	tc.CreateAccount(t, jwtB, models.CreateAccountRequest{
		Username: "visibility-org-b",
		Name:     "Organizer B",
		Role:     string(models.RoleOrganizer),
	})

	listOrganizers := func(token string) []models.AccountPublic {
		w := testutils.PerformRequest(tc.Router, http.MethodGet,
			"/api/accounts?role=organizer", nil, testutils.AuthHeaders(token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Accounts []models.AccountPublic `json:"accounts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Accounts
	}

	t.Run("ManagerSeesOnlyOwnOrganizers", func(t *testing.T) {
		accounts := listOrganizers(jwtA)
		require.Len(t, accounts, 1)
		assert.Equal(t, orgA.ID, accounts[0].ID)
	})

	t.Run("SuperAdminSeesAllOrganizers", func(t *testing.T) {
		assert.Len(t, listOrganizers(tc.RootJWT), 2)
	})

	t.Run("ManagerCannotReadForeignOrganizer", func(t *testing.T) {
		orgB, err := tc.Repository.GetAccountByUsername(context.Background(), "visibility-org-b")
		require.NoError(t, err)
		require.NotNil(t, orgB)

		w := testutils.PerformRequest(tc.Router, http.MethodGet,
			"/api/accounts/"+orgB.ID, nil, testutils.AuthHeaders(jwtA))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("OrganizerCannotList", func(t *testing.T) {
		orgJWT := tc.LoginToken(t, orgA.Username)
		w := testutils.PerformRequest(tc.Router, http.MethodGet,
			"/api/accounts?role=organizer", nil, testutils.AuthHeaders(orgJWT))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("PasswordNeverSerialized", func(t *testing.T) {
		w := testutils.PerformRequest(tc.Router, http.MethodGet,
			"/api/accounts/"+managerA.ID, nil, testutils.AuthHeaders(tc.RootJWT))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
	})
}
