package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

type mapLookup map[int64]*entity.User

func (m mapLookup) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return m[id], nil
}

type failingLookup struct{}

func (failingLookup) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return nil, errors.New("directory unavailable")
}

func ptr(id int64) *int64 { return &id }

func TestResolver_ApprovalChain(t *testing.T) {
	worker := &entity.User{ID: 1, Username: "worker", SupervisorID: ptr(2), Active: true}
	lead := &entity.User{ID: 2, Username: "lead", SupervisorID: ptr(3), Active: true}
	head := &entity.User{ID: 3, Username: "head", Active: true}
	resolver := NewResolver(mapLookup{1: worker, 2: lead, 3: head})

	chain, err := resolver.ApprovalChain(context.Background(), worker)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, lead.ID, chain[0].ID)
	assert.Equal(t, head.ID, chain[1].ID)
}

func TestResolver_ApprovalChain_TopLevel(t *testing.T) {
	head := &entity.User{ID: 3, Username: "head", Active: true}
	resolver := NewResolver(mapLookup{3: head})

	chain, err := resolver.ApprovalChain(context.Background(), head)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestResolver_ApprovalChain_InactiveSupervisorStaysInChain(t *testing.T) {
	worker := &entity.User{ID: 1, SupervisorID: ptr(2), Active: true}
	lead := &entity.User{ID: 2, SupervisorID: nil, Active: false}
	resolver := NewResolver(mapLookup{1: worker, 2: lead})

	chain, err := resolver.ApprovalChain(context.Background(), worker)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, lead.ID, chain[0].ID)
}

func TestResolver_ApprovalChain_DanglingEdge(t *testing.T) {
	worker := &entity.User{ID: 1, SupervisorID: ptr(99), Active: true}
	resolver := NewResolver(mapLookup{1: worker})

	chain, err := resolver.ApprovalChain(context.Background(), worker)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestResolver_ApprovalChain_CorruptedGraphTerminates(t *testing.T) {
	// a -> b -> c -> a written directly into the store, bypassing validation.
	a := &entity.User{ID: 1, SupervisorID: ptr(2), Active: true}
	b := &entity.User{ID: 2, SupervisorID: ptr(3), Active: true}
	c := &entity.User{ID: 3, SupervisorID: ptr(1), Active: true}
	resolver := NewResolver(mapLookup{1: a, 2: b, 3: c})

	chain, err := resolver.ApprovalChain(context.Background(), a)
	require.NoError(t, err)
	// The walk stops at the first revisited node instead of looping.
	require.Len(t, chain, 2)
	assert.Equal(t, b.ID, chain[0].ID)
	assert.Equal(t, c.ID, chain[1].ID)
}

func TestResolver_ApprovalChain_LookupError(t *testing.T) {
	worker := &entity.User{ID: 1, SupervisorID: ptr(2), Active: true}
	resolver := NewResolver(failingLookup{})

	_, err := resolver.ApprovalChain(context.Background(), worker)
	assert.Error(t, err)
}

func TestResolver_IsAcyclicAfterAssignment(t *testing.T) {
	a := &entity.User{ID: 1, SupervisorID: ptr(2), Active: true}
	b := &entity.User{ID: 2, SupervisorID: ptr(3), Active: true}
	c := &entity.User{ID: 3, Active: true}
	d := &entity.User{ID: 4, Active: true}
	lookup := mapLookup{1: a, 2: b, 3: c, 4: d}
	resolver := NewResolver(lookup)

	tests := []struct {
		name       string
		user       *entity.User
		supervisor int64
		want       bool
	}{
		{"new edge to unrelated user", d, c.ID, true},
		{"extend the top of the chain", c, d.ID, true},
		{"self supervision", a, a.ID, false},
		{"direct cycle", b, a.ID, false},
		{"transitive cycle", c, a.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.IsAcyclicAfterAssignment(context.Background(), tt.user, tt.supervisor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ValidateAssignment(t *testing.T) {
	a := &entity.User{ID: 1, SupervisorID: ptr(2), Active: true}
	b := &entity.User{ID: 2, Active: true}
	resolver := NewResolver(mapLookup{1: a, 2: b})

	require.NoError(t, resolver.ValidateAssignment(context.Background(), b, 99))

	err := resolver.ValidateAssignment(context.Background(), b, a.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrCircularHierarchy)

	var cycleErr *workflow.CircularHierarchyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, b.ID, cycleErr.UserID)
	assert.Equal(t, a.ID, cycleErr.SupervisorID)
}
