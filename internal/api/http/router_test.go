package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/api/http/handlers"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/observability"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/service"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f fakeUsers) ListByRole(_ context.Context, role domain.Role, _ *string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeComplaints struct {
	mu   sync.Mutex
	byID map[string]*domain.Complaint
}

func (f *fakeComplaints) Create(_ context.Context, c *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = "c-new"
	c.Version = 1
	f.byID[c.ID] = c.Clone()
	return nil
}

func (f *fakeComplaints) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.byID[id]; ok {
		return c.Clone(), nil
	}
	for _, c := range f.byID {
		if strings.EqualFold(c.ComplaintID, id) {
			return c.Clone(), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeComplaints) Save(_ context.Context, c *domain.Complaint, logs []domain.StatusLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.byID[c.ID]
	next := c.Clone()
	next.StatusLogs = append(append([]domain.StatusLogEntry(nil), stored.StatusLogs...), logs...)
	next.Version = stored.Version + 1
	f.byID[c.ID] = next
	return nil
}

func (f *fakeComplaints) List(context.Context, repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Complaint
	for _, c := range f.byID {
		out = append(out, *c.Clone())
	}
	return out, nil
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	store  *fakeComplaints
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	hash, err := auth.HashPassword("letmein", 4)
	require.NoError(t, err)
	users := fakeUsers{
		"officer": {ID: "officer", FullName: "Ward Officer", Email: "officer@city.gov", PasswordHash: hash, Role: domain.RoleWardOfficer, Active: true},
		"team":    {ID: "team", FullName: "Field Team", Email: "team@city.gov", Role: domain.RoleMaintenanceTeam, Active: true},
		"admin":   {ID: "admin", FullName: "Admin", Email: "admin@city.gov", Role: domain.RoleAdministrator, Active: true},
	}
	submitted := time.Now().Add(-time.Hour)
	store := &fakeComplaints{byID: map[string]*domain.Complaint{
		"c1": {
			ID:              "c1",
			ComplaintID:     "CMP-AAAA0001",
			Type:            "Water Supply",
			Status:          domain.StatusRegistered,
			Priority:        domain.PriorityMedium,
			WardOfficer:     domain.AssignByRecord(domain.AssignmentRecord{ID: "officer", FullName: "Ward Officer"}),
			MaintenanceTeam: domain.Unassigned(),
			SubmittedOn:     &submitted,
			Version:         1,
			StatusLogs:      []domain.StatusLogEntry{{Sequence: 1, ToStatus: domain.StatusRegistered}},
		},
	}}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	complaints := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: store,
		UserRepo:      users,
		Metrics:       metrics,
		Logger:        logger,
	})
	authService := service.NewAuthService(config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5}}, users, logger)

	validate := validator.New()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaints", "test", nil, nil, metrics),
		Users:          handlers.NewUsersHandler(authService, complaints, validate),
		Complaints:     handlers.NewComplaintsHandler(complaints, validate),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return testServer{app: app, tokens: authService.TokenManager(), store: store}
}

func (s testServer) do(t *testing.T, method, path, userID, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, _, err := s.tokens.GenerateToken(&domain.User{ID: userID})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	}
	return resp.StatusCode, payload
}

func TestPatchStatusValidationListsErrors(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPatch, "/complaints/c1/status", "officer", `{"status":"ASSIGNED"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, []any{service.MsgMaintenanceTeamRequired}, errBody["errors"])
	assert.Equal(t, domain.StatusRegistered, srv.store.byID["c1"].Status)
}

func TestPatchStatusAcceptsAssignmentShapes(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPatch, "/complaints/c1/status", "officer",
		`{"status":"ASSIGNED","maintenance_team":{"id":"team","fullName":"Field Team"},"remarks":"sending crew"}`)

	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ASSIGNED", data["status"])
	assert.Equal(t, "team", data["maintenance_team"].(map[string]any)["id"])
	assert.Equal(t, "Ward Officer", data["ward_officer"].(map[string]any)["name"])
	assert.Len(t, data["status_logs"], 2)
}

func TestPatchStatusRejectsUnknownStatus(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPatch, "/complaints/c1/status", "officer", `{"status":"ARCHIVED"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errs := body["error"].(map[string]any)["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "status must be one of")
}

func TestReopenRequiresAdministrator(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/complaints/c1/reopen", "officer", "")

	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["error"].(map[string]any)["code"])
}

func TestUnknownComplaintIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/complaints/nope/sla", "team", "")

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestGetComplaintByCode(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/complaints/CMP-ABC", "team", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	status, body = srv.do(t, http.MethodGet, "/complaints/cmp-aaaa0001", "team", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "c1", body["data"].(map[string]any)["id"])
}

func TestPatchStatusRejectsUnknownTeamMember(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPatch, "/complaints/c1/status", "officer",
		`{"status":"ASSIGNED","maintenance_team":"mt-1"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	assert.Equal(t, []any{"Selected maintenance team member 'mt-1' does not exist."}, errBody["errors"])
	assert.Equal(t, domain.StatusRegistered, srv.store.byID["c1"].Status)
}

func TestPatchStatusForbidsOutOfRoleAssignment(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPatch, "/complaints/c1/status", "officer",
		`{"ward_officer":{"id":"admin"}}`)

	assert.Equal(t, http.StatusForbidden, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "FORBIDDEN", errBody["code"])
	assert.Equal(t, []any{service.MsgOnlyAdminSetsOfficer}, errBody["errors"])
}

func TestSLAEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/complaints/c1/sla", "team", "")

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "N/A", body["data"].(map[string]any)["status"])
}

func TestStatusOptionsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/status-options?status=in_progress", "team", "")

	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, []any{"IN_PROGRESS", "RESOLVED"}, data["options"])
	assert.Equal(t, "MAINTENANCE_TEAM", data["role"])
}

func TestLoginAndMissingToken(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/auth/login", "", `{"email":"OFFICER@city.gov","password":"letmein"}`)
	require.Equal(t, http.StatusOK, status, body)
	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"]
	assert.NotEmpty(t, token)

	status, _ = srv.do(t, http.MethodPost, "/auth/login", "", `{"email":"officer@city.gov","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = srv.do(t, http.MethodGet, "/complaints/c1", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUnknownRouteAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/nowhere", "officer", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])

	status, body = srv.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["data"], "requests")
}
