package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/model"
)

const assignmentColumns = `id, name, points, num_of_attempts, deadline, assignment_created, assignment_updated`

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var a model.Assignment
	err := row.Scan(&a.ID, &a.Name, &a.Points, &a.NumOfAttempts, &a.Deadline, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns every assignment, oldest first.
func (db *DB) List(ctx context.Context) ([]model.Assignment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments ORDER BY assignment_created ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]model.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning assignment row: %w", err)
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating assignments: %w", err)
	}
	return assignments, nil
}

func (db *DB) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	a, err := scanAssignment(db.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Assignment")
		}
		return nil, fmt.Errorf("postgres: getting assignment %s: %w", id, err)
	}
	return a, nil
}

func (db *DB) Update(ctx context.Context, a *model.Assignment) error {
	a.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE assignments
		 SET name = $1, points = $2, num_of_attempts = $3, deadline = $4, assignment_updated = $5
		 WHERE id = $6`,
		a.Name, a.Points, a.NumOfAttempts, a.Deadline, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating assignment %s: %w", a.ID, err)
	}
	return requireRow(tag, apperror.NotFound("Assignment"))
}

// CreateWithLink inserts the assignment and its ownership link in one transaction.
func (db *DB) CreateWithLink(ctx context.Context, a *model.Assignment, ownerID string) (*model.AssignmentLink, error) {
	a.ID = xid.New().String()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	link := model.NewAssignmentLink(ownerID, a.ID)
	link.CreatedAt = now
	link.UpdatedAt = now

	err := db.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO assignments (`+assignmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.Name, a.Points, a.NumOfAttempts, a.Deadline, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("postgres: creating assignment: %w", err)
		}
		return insertLink(ctx, tx, link)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// DeleteWithLink removes the assignment and its link in one transaction.
func (db *DB) DeleteWithLink(ctx context.Context, assignmentID, linkID string) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, assignmentID)
		if err != nil {
			return fmt.Errorf("postgres: deleting assignment %s: %w", assignmentID, err)
		}
		if err := requireRow(tag, apperror.NotFound("Assignment")); err != nil {
			return err
		}

		tag, err = tx.Exec(ctx, `DELETE FROM assignment_links WHERE id = $1`, linkID)
		if err != nil {
			return fmt.Errorf("postgres: deleting assignment link %s: %w", linkID, err)
		}
		return requireRow(tag, apperror.NotFound("Assignment link"))
	})
}
