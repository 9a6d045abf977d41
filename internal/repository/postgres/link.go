package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/model"
)

func (db *DB) CreateLink(ctx context.Context, userID, assignmentID string) (*model.AssignmentLink, error) {
	link := model.NewAssignmentLink(userID, assignmentID)
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now

	if err := insertLink(ctx, db.pool, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (db *DB) GetLink(ctx context.Context, userID, assignmentID string) (*model.AssignmentLink, error) {
	id := model.LinkID(userID, assignmentID)

	var link model.AssignmentLink
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, assignment_id, created_at, updated_at FROM assignment_links WHERE id = $1`,
		id,
	).Scan(&link.ID, &link.UserID, &link.AssignmentID, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Assignment link")
		}
		return nil, fmt.Errorf("postgres: getting assignment link %s: %w", id, err)
	}
	return &link, nil
}

func (db *DB) DeleteLink(ctx context.Context, linkID string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM assignment_links WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("postgres: deleting assignment link %s: %w", linkID, err)
	}
	return requireRow(tag, apperror.NotFound("Assignment link"))
}

func insertLink(ctx context.Context, ex execer, link *model.AssignmentLink) error {
	_, err := ex.Exec(ctx,
		`INSERT INTO assignment_links (id, user_id, assignment_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		link.ID, link.UserID, link.AssignmentID, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("assignment link", link.ID)
		}
		return fmt.Errorf("postgres: creating assignment link %s: %w", link.ID, err)
	}
	return nil
}
