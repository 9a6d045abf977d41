package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akallepalli/assignment-service/internal/seed"
)

func newUserService(t *testing.T, store *fakeStore) *UserService {
	t.Helper()
	return NewUserService(store, testPasswords(t), testLogger())
}

func TestSeed(t *testing.T) {
	store := newFakeStore()
	addUser(t, store, "pre", "existing@x.com", "pw")
	svc := newUserService(t, store)

	records := []seed.UserRecord{
		{Line: 2, FirstName: "Ada", LastName: "L", Email: "ada@x.com", Password: "pw1"},
		{Line: 3, FirstName: "Old", LastName: "U", Email: "existing@x.com", Password: "pw2"},
		{Line: 4, FirstName: "", LastName: "N", Email: "noname@x.com", Password: "pw3"},
		{Line: 5, FirstName: "Long", LastName: "P", Email: "long@x.com", Password: strings.Repeat("p", 73)},
		{Line: 6, FirstName: "Ada", LastName: "Dup", Email: "ada@x.com", Password: "pw4"},
		{Line: 7, FirstName: "Bob", LastName: "B", Email: "bob@x.com", Password: "pw5"},
	}

	report, err := svc.Seed(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, SeedReport{Created: 2, Existing: 2, Invalid: 2}, report)

	ada, err := store.GetUserByEmail(context.Background(), "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, "L", ada.LastName, "first row for a duplicated email wins")
	assert.NoError(t, testPasswords(t).Verify(ada.PasswordHash, "pw1"))

	_, err = store.GetUserByEmail(context.Background(), "long@x.com")
	assert.Error(t, err)
}

func TestSeed_Idempotent(t *testing.T) {
	store := newFakeStore()
	svc := newUserService(t, store)
	records := []seed.UserRecord{
		{Line: 2, FirstName: "Ada", LastName: "L", Email: "ada@x.com", Password: "pw"},
	}

	first, err := svc.Seed(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := svc.Seed(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{Existing: 1}, second)
	assert.Len(t, store.users, 1)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	data := "first_name,last_name,email,password\n" +
		"Ada,Lovelace,ada@x.com,pw1\n" +
		"Bob,Builder,bob@x.com,pw2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	store := newFakeStore()
	report, err := newUserService(t, store).LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Len(t, store.users, 2)
}

func TestLoadFile_Missing(t *testing.T) {
	store := newFakeStore()
	report, err := newUserService(t, store).LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Equal(t, SeedReport{}, report)
}

func TestLoadFile_BadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,mail\nAda,ada@x.com\n"), 0o600))

	_, err := newUserService(t, newFakeStore()).LoadFile(context.Background(), path)
	assert.Error(t, err)
}
