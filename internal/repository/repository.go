// Package repository declares the storage interfaces the service layer depends on.
// Implementations live in the sqlite and postgres sub-packages.
package repository

import (
	"context"

	"github.com/akallepalli/assignment-service/internal/model"
)

// UserRepository stores user accounts. Lookups by email are exact matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// AssignmentRepository stores assignments.
//
// CreateWithLink and DeleteWithLink write the assignment and its ownership link in a
// single transaction: either both rows change or neither does.
type AssignmentRepository interface {
	List(ctx context.Context) ([]model.Assignment, error)
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	CreateWithLink(ctx context.Context, assignment *model.Assignment, ownerID string) (*model.AssignmentLink, error)
	DeleteWithLink(ctx context.Context, assignmentID, linkID string) error
}

// LinkRepository is the ownership link store. Keys are built with model.LinkID.
type LinkRepository interface {
	CreateLink(ctx context.Context, userID, assignmentID string) (*model.AssignmentLink, error)
	GetLink(ctx context.Context, userID, assignmentID string) (*model.AssignmentLink, error)
	DeleteLink(ctx context.Context, linkID string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store is everything a backend provides. The server owns one Store for its lifetime.
type Store interface {
	UserRepository
	AssignmentRepository
	LinkRepository
	Pinger
	Close() error
}
