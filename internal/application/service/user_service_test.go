package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/hierarchy"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

func newUserService(users ...*entity.User) (UserService, *mockUserRepo) {
	userRepo := newMockUserRepo(users...)
	resolver := hierarchy.NewResolver(userRepo)
	svc := NewUserService(userRepo, resolver, &mockTxManager{}, &mockLogger{})
	return svc, userRepo
}

func TestUserService_SetSupervisor(t *testing.T) {
	alice := &entity.User{ID: 1, Username: "alice", Active: true}
	bob := &entity.User{ID: 2, Username: "bob", Active: true}
	svc, _ := newUserService(alice, bob)

	if err := svc.SetSupervisor(context.Background(), alice.ID, ptr(bob.ID)); err != nil {
		t.Fatalf("SetSupervisor() error = %v", err)
	}
	if alice.SupervisorID == nil || *alice.SupervisorID != bob.ID {
		t.Errorf("supervisor edge not written: %v", alice.SupervisorID)
	}
}

func TestUserService_SetSupervisor_RejectsCycles(t *testing.T) {
	// a -> b -> c; closing the loop or self-supervising must fail.
	a := &entity.User{ID: 1, Username: "a", SupervisorID: ptr(2), Active: true}
	b := &entity.User{ID: 2, Username: "b", SupervisorID: ptr(3), Active: true}
	c := &entity.User{ID: 3, Username: "c", Active: true}
	svc, _ := newUserService(a, b, c)

	tests := []struct {
		name         string
		userID       int64
		supervisorID int64
	}{
		{"self supervision", a.ID, a.ID},
		{"direct cycle", b.ID, a.ID},
		{"transitive cycle", c.ID, a.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetSupervisor(context.Background(), tt.userID, ptr(tt.supervisorID))
			if !errors.Is(err, workflow.ErrCircularHierarchy) {
				t.Errorf("SetSupervisor() error = %v, want ErrCircularHierarchy", err)
			}
		})
	}

	// The graph is unchanged after the rejected assignments.
	if *a.SupervisorID != 2 || *b.SupervisorID != 3 || c.SupervisorID != nil {
		t.Error("rejected assignment mutated the supervisor graph")
	}
}

func TestUserService_SetSupervisor_ClearEdge(t *testing.T) {
	a := &entity.User{ID: 1, Username: "a", SupervisorID: ptr(2), Active: true}
	b := &entity.User{ID: 2, Username: "b", Active: true}
	svc, _ := newUserService(a, b)

	if err := svc.SetSupervisor(context.Background(), a.ID, nil); err != nil {
		t.Fatalf("SetSupervisor(nil) error = %v", err)
	}
	if a.SupervisorID != nil {
		t.Errorf("supervisor edge not cleared: %v", a.SupervisorID)
	}
}

func TestUserService_SetSupervisor_MissingUsers(t *testing.T) {
	a := &entity.User{ID: 1, Username: "a", Active: true}
	svc, _ := newUserService(a)

	if err := svc.SetSupervisor(context.Background(), 99, ptr(a.ID)); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("SetSupervisor(missing user) error = %v, want ErrNotFound", err)
	}
	if err := svc.SetSupervisor(context.Background(), a.ID, ptr(int64(99))); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("SetSupervisor(missing supervisor) error = %v, want ErrNotFound", err)
	}
}

func TestUserService_Create(t *testing.T) {
	boss := &entity.User{ID: 1, Username: "boss", Active: true}
	svc, repo := newUserService(boss)

	user := &entity.User{ID: 2, Username: "worker", SupervisorID: ptr(boss.ID), Active: true}
	if err := svc.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if repo.users[2] == nil {
		t.Error("user not persisted")
	}

	missing := &entity.User{ID: 3, Username: "orphan", SupervisorID: ptr(int64(42))}
	if err := svc.Create(context.Background(), missing); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("Create() with missing supervisor error = %v, want ErrNotFound", err)
	}

	if err := svc.Create(context.Background(), &entity.User{ID: 4}); err == nil {
		t.Error("Create() with empty username succeeded, want error")
	}
}

func TestUserService_ApprovalChain(t *testing.T) {
	a := &entity.User{ID: 1, Username: "a", SupervisorID: ptr(2), Active: true}
	b := &entity.User{ID: 2, Username: "b", SupervisorID: ptr(3), Active: true}
	c := &entity.User{ID: 3, Username: "c", Active: true}
	svc, _ := newUserService(a, b, c)

	chain, err := svc.ApprovalChain(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("ApprovalChain() error = %v", err)
	}
	if len(chain) != 2 || chain[0].ID != b.ID || chain[1].ID != c.ID {
		t.Errorf("ApprovalChain() = %v, want [b c]", chain)
	}
}
