// Package service contains the business rules: identity resolution, the ownership
// gate in front of every mutation, input validation and the health probe.
//
// Services take repository interfaces and return apperror values; they know
// nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/model"
	"github.com/akallepalli/assignment-service/internal/repository"
)

// Validation limits.
const (
	MaxNameLength = 255
	MinPoints     = 1
	MaxPoints     = 100
	MinAttempts   = 1
	MaxAttempts   = 100
)

// deadlineLayouts are tried in order when parsing AssignmentInput.Deadline.
var deadlineLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// AssignmentInput is the client-supplied part of an assignment.
type AssignmentInput struct {
	Name          string
	Points        int
	NumOfAttempts int
	Deadline      string
}

// CreateResult bundles everything a creation produces.
type CreateResult struct {
	ConcatenatedID string
	Assignment     *model.Assignment
	Link           *model.AssignmentLink
}

// AssignmentService implements assignment CRUD behind the ownership gate.
type AssignmentService struct {
	assignments repository.AssignmentRepository
	links       repository.LinkRepository
	identities  *IdentityResolver
	logger      *slog.Logger
}

func NewAssignmentService(
	assignments repository.AssignmentRepository,
	links repository.LinkRepository,
	identities *IdentityResolver,
	logger *slog.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		links:       links,
		identities:  identities,
		logger:      logger,
	}
}

// List returns all assignments.
func (s *AssignmentService) List(ctx context.Context) ([]model.Assignment, error) {
	assignments, err := s.assignments.List(ctx)
	if err != nil {
		s.logger.Error("failed to list assignments", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	return assignments, nil
}

// GetByID returns one assignment or apperror.ErrNotFound.
func (s *AssignmentService) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.NotFound("Assignment")
	}
	return s.assignments.GetByID(ctx, id)
}

// Create stores a new assignment owned by the caller. Any resolvable identity may
// create; the assignment and its link are written together.
func (s *AssignmentService) Create(ctx context.Context, creds auth.Credentials, in AssignmentInput) (*CreateResult, error) {
	user, err := s.identities.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	a, err := in.toAssignment()
	if err != nil {
		return nil, err
	}

	link, err := s.assignments.CreateWithLink(ctx, a, user.ID)
	if err != nil {
		s.logger.Error("failed to create assignment",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating assignment: %w", err)
	}

	s.logger.Info("assignment created",
		slog.String("id", a.ID),
		slog.String("owner", user.ID),
		slog.String("link", link.ID),
	)

	return &CreateResult{
		ConcatenatedID: link.ID,
		Assignment:     a,
		Link:           link,
	}, nil
}

// Update replaces the fields of an assignment the caller owns.
func (s *AssignmentService) Update(ctx context.Context, creds auth.Credentials, id string, in AssignmentInput) (*model.Assignment, error) {
	_, existing, _, err := s.authorize(ctx, creds, id, "update")
	if err != nil {
		return nil, err
	}

	changes, err := in.toAssignment()
	if err != nil {
		return nil, err
	}
	existing.Name = changes.Name
	existing.Points = changes.Points
	existing.NumOfAttempts = changes.NumOfAttempts
	existing.Deadline = changes.Deadline

	if err := s.assignments.Update(ctx, existing); err != nil {
		s.logger.Error("failed to update assignment",
			slog.String("id", existing.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating assignment: %w", err)
	}

	s.logger.Info("assignment updated", slog.String("id", existing.ID))
	return existing, nil
}

// Delete removes an assignment the caller owns, together with its link.
func (s *AssignmentService) Delete(ctx context.Context, creds auth.Credentials, id string) error {
	_, a, link, err := s.authorize(ctx, creds, id, "delete")
	if err != nil {
		return err
	}

	if err := s.assignments.DeleteWithLink(ctx, a.ID, link.ID); err != nil {
		s.logger.Error("failed to delete assignment",
			slog.String("id", a.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting assignment: %w", err)
	}

	s.logger.Info("assignment deleted", slog.String("id", a.ID), slog.String("link", link.ID))
	return nil
}

// authorize is the ownership gate. The checks run in a fixed order:
// unknown user → 404, unknown assignment → 404, no link → 403.
func (s *AssignmentService) authorize(ctx context.Context, creds auth.Credentials, id, action string) (*model.User, *model.Assignment, *model.AssignmentLink, error) {
	user, err := s.identities.Resolve(ctx, creds)
	if err != nil {
		return nil, nil, nil, err
	}

	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	link, err := s.links.GetLink(ctx, user.ID, a.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("ownership check failed",
				slog.String("action", action),
				slog.String("userID", user.ID),
				slog.String("assignmentID", a.ID),
			)
			return nil, nil, nil, apperror.Forbidden(
				fmt.Sprintf("You are not authorized to %s this assignment", action))
		}
		return nil, nil, nil, fmt.Errorf("checking ownership: %w", err)
	}

	return user, a, link, nil
}

// toAssignment validates in and converts it to a model value without an ID.
func (in AssignmentInput) toAssignment() (*model.Assignment, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if in.Points < MinPoints || in.Points > MaxPoints {
		return nil, apperror.ValidationFailed("points",
			fmt.Sprintf("points must be between %d and %d", MinPoints, MaxPoints))
	}
	if in.NumOfAttempts < MinAttempts || in.NumOfAttempts > MaxAttempts {
		return nil, apperror.ValidationFailed("num_of_attempts",
			fmt.Sprintf("num_of_attempts must be between %d and %d", MinAttempts, MaxAttempts))
	}

	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return nil, err
	}

	return &model.Assignment{
		Name:          name,
		Points:        in.Points,
		NumOfAttempts: in.NumOfAttempts,
		Deadline:      deadline,
	}, nil
}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apperror.ValidationFailed("deadline", "deadline is required")
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperror.ValidationFailed("deadline",
		"deadline must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}
