package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore is an in-memory implementation of every repository interface.
// The *Err fields let tests simulate a failing database.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*model.User // keyed by email
	assignments map[string]*model.Assignment
	links       map[string]*model.AssignmentLink
	nextID      int

	pingErr    error
	listErr    error
	createErr  error
	getUserErr error

	linkLookups int // how many times GetLink ran
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*model.User),
		assignments: make(map[string]*model.Assignment),
		links:       make(map[string]*model.AssignmentLink),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return apperror.Conflict("user", user.Email)
	}
	if user.ID == "" {
		f.nextID++
		user.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	stored := *user
	f.users[user.Email] = &stored
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	result := *u
	return &result, nil
}

func (f *fakeStore) List(_ context.Context) ([]model.Assignment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := make([]model.Assignment, 0, len(f.assignments))
	for _, a := range f.assignments {
		result = append(result, *a)
	}
	return result, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := f.assignments[id]
	if !ok {
		return nil, apperror.NotFound("Assignment")
	}
	result := *a
	return &result, nil
}

func (f *fakeStore) Update(_ context.Context, a *model.Assignment) error {
	if _, ok := f.assignments[a.ID]; !ok {
		return apperror.NotFound("Assignment")
	}
	stored := *a
	f.assignments[a.ID] = &stored
	return nil
}

func (f *fakeStore) CreateWithLink(_ context.Context, a *model.Assignment, ownerID string) (*model.AssignmentLink, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	a.ID = fmt.Sprintf("asg%d", f.nextID)
	stored := *a
	f.assignments[a.ID] = &stored

	link := model.NewAssignmentLink(ownerID, a.ID)
	f.links[link.ID] = link
	return link, nil
}

func (f *fakeStore) DeleteWithLink(_ context.Context, assignmentID, linkID string) error {
	if _, ok := f.assignments[assignmentID]; !ok {
		return apperror.NotFound("Assignment")
	}
	if _, ok := f.links[linkID]; !ok {
		return apperror.NotFound("Assignment link")
	}
	delete(f.assignments, assignmentID)
	delete(f.links, linkID)
	return nil
}

func (f *fakeStore) CreateLink(_ context.Context, userID, assignmentID string) (*model.AssignmentLink, error) {
	link := model.NewAssignmentLink(userID, assignmentID)
	f.links[link.ID] = link
	return link, nil
}

func (f *fakeStore) GetLink(_ context.Context, userID, assignmentID string) (*model.AssignmentLink, error) {
	f.linkLookups++
	link, ok := f.links[model.LinkID(userID, assignmentID)]
	if !ok {
		return nil, apperror.NotFound("Assignment link")
	}
	return link, nil
}

func (f *fakeStore) DeleteLink(_ context.Context, linkID string) error {
	delete(f.links, linkID)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return ctx.Err()
}

// =========================================================================
// HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testPasswords(t *testing.T) *auth.PasswordService {
	t.Helper()
	ps, err := auth.NewPasswordService(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}
	return ps
}

// addUser stores a user whose password hash matches password.
func addUser(t *testing.T, store *fakeStore, id, email, password string) *model.User {
	t.Helper()
	hash, err := testPasswords(t).Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &model.User{ID: id, FirstName: "F", LastName: "L", Email: email, PasswordHash: hash}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}
