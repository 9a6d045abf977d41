package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/model"
)

// CreateUser inserts a user, generating a UUID v4 when user.ID is empty.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, email, password, account_created, account_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("postgres: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByEmail retrieves a user by exact email match.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := db.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, password, account_created, account_updated
		 FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", email, err)
	}
	return &u, nil
}
