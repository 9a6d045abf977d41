package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/model"
)

// CreateLink records that userID owns assignmentID.
// Returns apperror.ErrConflict if the link already exists.
func (db *DB) CreateLink(ctx context.Context, userID, assignmentID string) (*model.AssignmentLink, error) {
	link := model.NewAssignmentLink(userID, assignmentID)
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	if err := insertLink(ctx, db.conn, link); err != nil {
		return nil, err
	}
	return link, nil
}

// GetLink looks up the link for (userID, assignmentID).
// Returns apperror.ErrNotFound when the pair has no ownership record.
func (db *DB) GetLink(ctx context.Context, userID, assignmentID string) (*model.AssignmentLink, error) {
	id := model.LinkID(userID, assignmentID)

	var link model.AssignmentLink
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, assignment_id, created_at, updated_at
		 FROM assignment_links WHERE id = ?`,
		id,
	).Scan(&link.ID, &link.UserID, &link.AssignmentID, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Assignment link")
		}
		return nil, fmt.Errorf("sqlite: getting assignment link %s: %w", id, err)
	}

	return &link, nil
}

// DeleteLink removes a link by its id.
func (db *DB) DeleteLink(ctx context.Context, linkID string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM assignment_links WHERE id = ?`, linkID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting assignment link %s: %w", linkID, err)
	}
	return requireRow(result, apperror.NotFound("Assignment link"))
}

func insertLink(ctx context.Context, ex execer, link *model.AssignmentLink) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO assignment_links (id, user_id, assignment_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		link.ID,
		link.UserID,
		link.AssignmentID,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return apperror.Conflict("assignment link", link.ID)
		}
		return fmt.Errorf("sqlite: creating assignment link %s: %w", link.ID, err)
	}
	return nil
}
