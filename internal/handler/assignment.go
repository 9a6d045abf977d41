// Package handler turns HTTP requests into service calls and service results
// into JSON responses.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/model"
	"github.com/akallepalli/assignment-service/internal/service"
)

// maxBodyBytes caps assignment request bodies.
const maxBodyBytes = 1 << 20

const patchNotAllowed = "Method Not Allowed: Use PUT method to update assignments"

// AssignmentRequest is the JSON body accepted by POST and PUT.
type AssignmentRequest struct {
	Name          string `json:"name"`
	Points        int    `json:"points"`
	NumOfAttempts int    `json:"num_of_attempts"`
	Deadline      string `json:"deadline"`
}

func (req AssignmentRequest) input() service.AssignmentInput {
	return service.AssignmentInput{
		Name:          req.Name,
		Points:        req.Points,
		NumOfAttempts: req.NumOfAttempts,
		Deadline:      req.Deadline,
	}
}

// CreateResponse is the 201 body of POST /v1/assignments.
type CreateResponse struct {
	ConcatenatedID string                `json:"concatenatedId"`
	NewAssignment  *model.Assignment     `json:"newAssignment"`
	AssignmentLink *model.AssignmentLink `json:"assignmentLink"`
}

// AssignmentHandler serves /v1/assignments. It expects auth.BasicAuth to have run,
// but the service decides what missing credentials mean.
type AssignmentHandler struct {
	service *service.AssignmentService
	logger  *slog.Logger
}

func NewAssignmentHandler(svc *service.AssignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{service: svc, logger: logger}
}

// HandleList returns every assignment.
//
// HTTP: GET /v1/assignments
func (h *AssignmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err, listFailure)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// HandleGet returns one assignment.
//
// HTTP: GET /v1/assignments/{id}
func (h *AssignmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logIfUnexpected(err, "get")
		writeError(w, err, getFailure)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleCreate stores a new assignment owned by the caller.
//
// HTTP: POST /v1/assignments
// REQUEST BODY: {"name": "HW1", "points": 10, "num_of_attempts": 2, "deadline": "2024-01-01"}
func (h *AssignmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssignment(w, r)
	if err != nil {
		writeError(w, err, createFailure)
		return
	}

	creds := auth.CredentialsFromContext(r.Context())
	res, err := h.service.Create(r.Context(), creds, req.input())
	if err != nil {
		h.logIfUnexpected(err, "create")
		writeError(w, err, createFailure)
		return
	}

	writeJSON(w, http.StatusCreated, CreateResponse{
		ConcatenatedID: res.ConcatenatedID,
		NewAssignment:  res.Assignment,
		AssignmentLink: res.Link,
	})
}

// HandleUpdate replaces an assignment the caller owns.
//
// HTTP: PUT /v1/assignments/{id}
func (h *AssignmentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssignment(w, r)
	if err != nil {
		writeError(w, err, updateFailure)
		return
	}

	creds := auth.CredentialsFromContext(r.Context())
	a, err := h.service.Update(r.Context(), creds, chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.logIfUnexpected(err, "update")
		writeError(w, err, updateFailure)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete removes an assignment the caller owns.
//
// HTTP: DELETE /v1/assignments/{id}
func (h *AssignmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	creds := auth.CredentialsFromContext(r.Context())
	if err := h.service.Delete(r.Context(), creds, chi.URLParam(r, "id")); err != nil {
		h.logIfUnexpected(err, "delete")
		writeError(w, err, deleteFailure)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Assignment and Assignment_links record deleted successfully"})
}

// HandlePatch rejects partial updates. It runs no authentication and ignores the body.
//
// HTTP: PATCH /v1/assignments/{id}
func (h *AssignmentHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.MethodNotAllowed(patchNotAllowed), updateFailure)
}

// decodeAssignment reads the JSON body. Malformed JSON is a validation error.
func decodeAssignment(w http.ResponseWriter, r *http.Request) (AssignmentRequest, error) {
	var req AssignmentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, apperror.ValidationFailed("body", "Request body is required")
		}
		return req, apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return req, nil
}

// logIfUnexpected logs errors outside the apperror taxonomy. Expected outcomes
// (404, 403, 400) are logged by the service or not at all.
func (h *AssignmentHandler) logIfUnexpected(err error, op string) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error("assignment request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}
