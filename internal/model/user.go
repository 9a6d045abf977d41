// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account that can authenticate with Basic auth and own assignments.
//
// Users are loaded from the seed file at startup and are not modified afterwards.
// PasswordHash holds a bcrypt hash and is never serialised to clients.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"account_created"`
	UpdatedAt    time.Time `json:"account_updated"`
}
