package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/model"
)

const assignmentColumns = `id, name, points, num_of_attempts, deadline, assignment_created, assignment_updated`

// List returns every assignment, oldest first.
func (db *DB) List(ctx context.Context) ([]model.Assignment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments
		 ORDER BY assignment_created ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]model.Assignment, 0)
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Points, &a.NumOfAttempts,
			&a.Deadline, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating assignments: %w", err)
	}

	return assignments, nil
}

// GetByID retrieves one assignment. Returns apperror.ErrNotFound when absent.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`,
		id,
	).Scan(
		&a.ID, &a.Name, &a.Points, &a.NumOfAttempts,
		&a.Deadline, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Assignment")
		}
		return nil, fmt.Errorf("sqlite: getting assignment %s: %w", id, err)
	}

	return &a, nil
}

// Update overwrites the mutable fields of an assignment and bumps assignment_updated.
func (db *DB) Update(ctx context.Context, a *model.Assignment) error {
	a.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE assignments
		 SET name = ?, points = ?, num_of_attempts = ?, deadline = ?, assignment_updated = ?
		 WHERE id = ?`,
		a.Name,
		a.Points,
		a.NumOfAttempts,
		a.Deadline,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating assignment %s: %w", a.ID, err)
	}

	return requireRow(result, apperror.NotFound("Assignment"))
}

// CreateWithLink inserts the assignment and the link owned by ownerID in one
// transaction. The assignment's ID and timestamps are filled in place.
func (db *DB) CreateWithLink(ctx context.Context, a *model.Assignment, ownerID string) (*model.AssignmentLink, error) {
	a.ID = xid.New().String()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	link := model.NewAssignmentLink(ownerID, a.ID)
	link.CreatedAt = now
	link.UpdatedAt = now

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assignments (`+assignmentColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID,
			a.Name,
			a.Points,
			a.NumOfAttempts,
			a.Deadline,
			a.CreatedAt,
			a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating assignment: %w", err)
		}
		return insertLink(ctx, tx, link)
	})
	if err != nil {
		return nil, err
	}

	return link, nil
}

// DeleteWithLink removes the assignment and its link in one transaction.
// If either row is missing nothing is deleted.
func (db *DB) DeleteWithLink(ctx context.Context, assignmentID, linkID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ?`, assignmentID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting assignment %s: %w", assignmentID, err)
		}
		if err := requireRow(result, apperror.NotFound("Assignment")); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM assignment_links WHERE id = ?`, linkID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting assignment link %s: %w", linkID, err)
		}
		return requireRow(result, apperror.NotFound("Assignment link"))
	})
}
