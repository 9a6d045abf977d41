package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/handler"
	"github.com/akallepalli/assignment-service/internal/model"
	"github.com/akallepalli/assignment-service/internal/repository"
	sqliteRepo "github.com/akallepalli/assignment-service/internal/repository/sqlite"
	"github.com/akallepalli/assignment-service/internal/service"
)

type testEnv struct {
	router http.Handler
	db     *sqliteRepo.DB
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// storeWrapper lets a test replace parts of the database with failing versions.
type storeWrapper func(db *sqliteRepo.DB) (repository.UserRepository, repository.AssignmentRepository)

// newTestEnv wires the assignment handler to a fresh in-memory database.
func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, func(db *sqliteRepo.DB) (repository.UserRepository, repository.AssignmentRepository) {
		return db, db
	})
}

func newTestEnvWith(t *testing.T, wrap storeWrapper) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users, assignments := wrap(db)
	logger := testLogger()
	identities := service.NewIdentityResolver(users, nil, false, logger)
	h := handler.NewAssignmentHandler(service.NewAssignmentService(assignments, db, identities, logger), logger)

	r := chi.NewRouter()
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)
	r.Route("/v1/assignments", func(r chi.Router) {
		r.Use(auth.BasicAuth)
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Patch("/{id}", h.HandlePatch)
	})

	return &testEnv{router: r, db: db}
}

func (e *testEnv) addUser(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{FirstName: "F", LastName: "L", Email: email, PasswordHash: "x"}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) do(method, path, email, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.SetBasicAuth(email, "secret")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) create(t *testing.T, email string) handler.CreateResponse {
	t.Helper()
	rec := e.do(http.MethodPost, "/v1/assignments", email, hw1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handler.CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

const hw1 = `{"name":"HW1","points":10,"num_of_attempts":2,"deadline":"2024-01-01"}`

func TestHandleCreate(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.addUser(t, "u1@example.com")

	resp := env.create(t, "u1@example.com")

	require.NotNil(t, resp.NewAssignment)
	assert.Equal(t, u1.ID+"_"+resp.NewAssignment.ID, resp.ConcatenatedID)
	assert.Equal(t, resp.ConcatenatedID, resp.AssignmentLink.ID)
	assert.Equal(t, "HW1", resp.NewAssignment.Name)
	assert.Equal(t, 2, resp.NewAssignment.NumOfAttempts)

	link, err := env.db.GetLink(context.Background(), u1.ID, resp.NewAssignment.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ConcatenatedID, link.ID)
}

func TestHandleCreate_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1@example.com")

	tests := []struct {
		name       string
		email      string
		body       string
		wantStatus int
		wantError  string
	}{
		{"no credentials", "", hw1, http.StatusNotFound, "User not found"},
		{"unknown user", "ghost@example.com", hw1, http.StatusNotFound, "User not found"},
		{"malformed json", "u1@example.com", `{"name":`, http.StatusBadRequest, "Invalid JSON body"},
		{"wrong type", "u1@example.com", `{"name":"HW","points":"ten"}`, http.StatusBadRequest, "Invalid JSON body"},
		{"empty body", "u1@example.com", "", http.StatusBadRequest, "Request body is required"},
		{"points out of range", "u1@example.com",
			`{"name":"HW","points":101,"num_of_attempts":1,"deadline":"2024-01-01"}`,
			http.StatusBadRequest, "points must be between 1 and 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/v1/assignments", tt.email, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantError, errorMessage(t, rec))
		})
	}
}

// brokenWrites fails every assignment insert.
type brokenWrites struct{ *sqliteRepo.DB }

func (brokenWrites) CreateWithLink(context.Context, *model.Assignment, string) (*model.AssignmentLink, error) {
	return nil, errors.New("database is locked")
}

// brokenLookups fails every user lookup with something other than not found.
type brokenLookups struct{ *sqliteRepo.DB }

func (brokenLookups) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("connection reset")
}

func TestHandleCreate_StoreFailureIsBadRequest(t *testing.T) {
	tests := []struct {
		name string
		wrap storeWrapper
	}{
		{"insert fails", func(db *sqliteRepo.DB) (repository.UserRepository, repository.AssignmentRepository) {
			return db, brokenWrites{db}
		}},
		{"user lookup fails", func(db *sqliteRepo.DB) (repository.UserRepository, repository.AssignmentRepository) {
			return brokenLookups{db}, db
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWith(t, tt.wrap)
			env.addUser(t, "u1@example.com")

			rec := env.do(http.MethodPost, "/v1/assignments", "u1@example.com", hw1)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Unable to create assignment", errorMessage(t, rec))
		})
	}
}

// brokenList fails every listing.
type brokenList struct{ *sqliteRepo.DB }

func (brokenList) List(context.Context) ([]model.Assignment, error) {
	return nil, errors.New("disk I/O error")
}

func TestHandleList_StoreFailure(t *testing.T) {
	env := newTestEnvWith(t, func(db *sqliteRepo.DB) (repository.UserRepository, repository.AssignmentRepository) {
		return db, brokenList{db}
	})

	rec := env.do(http.MethodGet, "/v1/assignments", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Unable to retrieve assignments", errorMessage(t, rec))
}

func TestHandleList_And_Get(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u1@example.com")

	rec := env.do(http.MethodGet, "/v1/assignments", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	created := env.create(t, "u1@example.com")

	rec = env.do(http.MethodGet, "/v1/assignments", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.NewAssignment.ID, list[0].ID)

	rec = env.do(http.MethodGet, "/v1/assignments/"+created.NewAssignment.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "HW1", got.Name)

	rec = env.do(http.MethodGet, "/v1/assignments/does-not-exist", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Assignment not found", errorMessage(t, rec))
}

func TestHandleUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "a@example.com")
	env.addUser(t, "b@example.com")
	created := env.create(t, "a@example.com")
	path := "/v1/assignments/" + created.NewAssignment.ID
	updated := `{"name":"HW1 v2","points":20,"num_of_attempts":3,"deadline":"2024-02-01T12:00:00Z"}`

	tests := []struct {
		name       string
		email      string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"unknown user", "ghost@example.com", path, updated, http.StatusNotFound, "User not found"},
		{"missing assignment", "a@example.com", "/v1/assignments/nope", updated, http.StatusNotFound, "Assignment not found"},
		{"not the owner", "b@example.com", path, updated, http.StatusForbidden, "You are not authorized to update this assignment"},
		{"not the owner with invalid body", "b@example.com", path, `{"name":""}`, http.StatusForbidden, "You are not authorized to update this assignment"},
		{"owner with invalid body", "a@example.com", path, `{"name":""}`, http.StatusBadRequest, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPut, tt.path, tt.email, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, errorMessage(t, rec))
		})
	}

	rec := env.do(http.MethodPut, path, "a@example.com", updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got model.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "HW1 v2", got.Name)
	assert.Equal(t, 20, got.Points)
}

func TestHandleDelete(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser(t, "a@example.com")
	env.addUser(t, "b@example.com")
	created := env.create(t, "a@example.com")
	path := "/v1/assignments/" + created.NewAssignment.ID

	rec := env.do(http.MethodDelete, path, "b@example.com", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You are not authorized to delete this assignment", errorMessage(t, rec))

	rec = env.do(http.MethodDelete, path, "a@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Assignment and Assignment_links record deleted successfully"}`, rec.Body.String())

	_, err := env.db.GetLink(context.Background(), owner.ID, created.NewAssignment.ID)
	assert.Error(t, err)

	rec = env.do(http.MethodDelete, path, "a@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePatch_AlwaysNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "a@example.com")
	created := env.create(t, "a@example.com")

	tests := []struct {
		name  string
		email string
		path  string
		body  string
	}{
		{"owner", "a@example.com", "/v1/assignments/" + created.NewAssignment.ID, hw1},
		{"anonymous", "", "/v1/assignments/" + created.NewAssignment.ID, ""},
		{"missing assignment", "ghost@example.com", "/v1/assignments/nope", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPatch, tt.path, tt.email, tt.body)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, "Method Not Allowed: Use PUT method to update assignments", errorMessage(t, rec))
		})
	}
}

func TestRouterFallbacks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v2/whatever", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", errorMessage(t, rec))

	rec = env.do(http.MethodPut, "/v1/assignments", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", errorMessage(t, rec))
}
