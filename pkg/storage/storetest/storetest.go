// Package storetest holds the behavioral tests every users.Store
// implementation must pass. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/storage"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// Run executes the store conformance tests. newStore must return an empty
// store for each call.
func Run(t *testing.T, newStore func(t *testing.T) users.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s users.Store)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"UniqueUsername", testUniqueUsername},
		{"NotFound", testNotFound},
		{"TokenLifecycle", testTokenLifecycle},
		{"ClearTokenExactMatch", testClearTokenExactMatch},
		{"UpdateProfileKeepsToken", testUpdateProfileKeepsToken},
		{"ListOrdered", testListOrdered},
		{"Delete", testDelete},
		{"ConcurrentSetToken", testConcurrentSetToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustCreate(t *testing.T, s users.Store, username string) *api.User {
	t.Helper()
	u := &api.User{Username: username, PasswordHash: "hash-" + username, Email: username + "@example.com"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	if u.ID <= 0 {
		t.Fatalf("CreateUser(%q) assigned ID %d, want > 0", username, u.ID)
	}
	return u
}

func testCreateAndGet(t *testing.T, s users.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "alice")

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice" || got.PasswordHash != "hash-alice" || got.Email != "alice@example.com" {
		t.Errorf("GetUser = %+v", got)
	}
	if got.Token != "" {
		t.Errorf("new user has token %q", got.Token)
	}

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != u.ID {
		t.Errorf("GetUserByUsername ID = %d, want %d", byName.ID, u.ID)
	}
}

func testUniqueUsername(t *testing.T, s users.Store) {
	mustCreate(t, s, "alice")

	err := s.CreateUser(context.Background(), &api.User{Username: "alice", PasswordHash: "other"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate CreateUser error = %v, want ErrConflict", err)
	}

	list, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListUsers returned %d users, want 1", len(list))
	}
}

func testNotFound(t *testing.T, s users.Store) {
	ctx := context.Background()

	if _, err := s.GetUser(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserByUsername error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByToken(ctx, "MQ=="); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserByToken error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByToken(ctx, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserByToken(\"\") error = %v, want ErrNotFound", err)
	}
	if err := s.SetToken(ctx, 999, "OTk5"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SetToken error = %v, want ErrNotFound", err)
	}
	if err := s.ClearToken(ctx, "OTk5"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ClearToken error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateProfile(ctx, &api.User{ID: 999}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateProfile error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteUser(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteUser error = %v, want ErrNotFound", err)
	}
}

func testTokenLifecycle(t *testing.T, s users.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "alice")

	if err := s.SetToken(ctx, u.ID, "tok-alice"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	got, err := s.GetUserByToken(ctx, "tok-alice")
	if err != nil {
		t.Fatalf("GetUserByToken: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetUserByToken ID = %d, want %d", got.ID, u.ID)
	}

	// Overwrite with the same value is a no-op.
	if err := s.SetToken(ctx, u.ID, "tok-alice"); err != nil {
		t.Fatalf("second SetToken: %v", err)
	}

	if err := s.ClearToken(ctx, "tok-alice"); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, err := s.GetUserByToken(ctx, "tok-alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUserByToken after clear = %v, want ErrNotFound", err)
	}
	if err := s.ClearToken(ctx, "tok-alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second ClearToken = %v, want ErrNotFound", err)
	}

	got, err = s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Token != "" {
		t.Errorf("token after clear = %q, want empty", got.Token)
	}
}

func testClearTokenExactMatch(t *testing.T, s users.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "alice")
	if err := s.SetToken(ctx, u.ID, "MQ=="); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	for _, tok := range []string{"MQ", "mq==", "MQ== ", "MQ==x"} {
		if err := s.ClearToken(ctx, tok); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("ClearToken(%q) = %v, want ErrNotFound", tok, err)
		}
		if _, err := s.GetUserByToken(ctx, tok); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByToken(%q) = %v, want ErrNotFound", tok, err)
		}
	}

	if _, err := s.GetUserByToken(ctx, "MQ=="); err != nil {
		t.Errorf("exact token no longer found: %v", err)
	}
}

func testUpdateProfileKeepsToken(t *testing.T, s users.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "alice")
	if err := s.SetToken(ctx, u.ID, "tok-alice"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	update := &api.User{ID: u.ID, Email: "new@example.com", PasswordHash: "new-hash", Token: ""}
	if err := s.UpdateProfile(ctx, update); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "new@example.com" || got.PasswordHash != "new-hash" {
		t.Errorf("profile not updated: %+v", got)
	}
	if got.Token != "tok-alice" {
		t.Errorf("token = %q after profile update, want %q", got.Token, "tok-alice")
	}
}

func testListOrdered(t *testing.T, s users.Store) {
	a := mustCreate(t, s, "alice")
	b := mustCreate(t, s, "bob")
	c := mustCreate(t, s, "carol")

	list, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListUsers returned %d users, want 3", len(list))
	}
	want := []int64{a.ID, b.ID, c.ID}
	for i, u := range list {
		if u.ID != want[i] {
			t.Errorf("list[%d].ID = %d, want %d", i, u.ID, want[i])
		}
	}
}

func testDelete(t *testing.T, s users.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "alice")

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.GetUser(ctx, u.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser after delete = %v, want ErrNotFound", err)
	}

	// The username is free again.
	mustCreate(t, s, "alice")
}

func testConcurrentSetToken(t *testing.T, s users.Store) {
	ctx := context.Background()
	u := mustCreate(t, s, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.SetToken(ctx, u.ID, "tok-alice"); err != nil {
				t.Errorf("SetToken: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetUserByToken(ctx, "tok-alice")
	if err != nil {
		t.Fatalf("GetUserByToken: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetUserByToken ID = %d, want %d", got.ID, u.ID)
	}
}
