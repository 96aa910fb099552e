// Package hierarchy resolves approval routing from the live supervisor graph.
// The chain is recomputed on every call rather than snapshotted at submission
// time, so organizational changes propagate to in-flight approvals.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// UserLookup is the read access the resolver needs into the user directory
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// Resolver computes supervisor chains and guards against cycles
type Resolver struct {
	users UserLookup
}

// NewResolver creates a resolver over the given user directory
func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// ApprovalChain returns the ordered supervisors above the given user, nearest
// first. The walk keeps a visited set: on a corrupted graph it stops at the
// first revisited node and returns the chain computed so far instead of
// looping. Inactive supervisors stay in the chain; routing is positional.
func (r *Resolver) ApprovalChain(ctx context.Context, user *entity.User) ([]*entity.User, error) {
	var chain []*entity.User

	visited := map[int64]bool{user.ID: true}
	nextID := user.SupervisorID

	for nextID != nil {
		if visited[*nextID] {
			return chain, nil
		}
		visited[*nextID] = true

		supervisor, err := r.users.GetByID(ctx, *nextID)
		if err != nil {
			return nil, fmt.Errorf("resolve supervisor %d: %w", *nextID, err)
		}
		if supervisor == nil {
			// Dangling edge; treat as top of chain
			return chain, nil
		}

		chain = append(chain, supervisor)
		nextID = supervisor.SupervisorID
	}

	return chain, nil
}

// IsAcyclicAfterAssignment simulates user.SupervisorID = proposedSupervisorID
// and reports whether the resulting graph stays acyclic. Self-supervision is
// always rejected.
func (r *Resolver) IsAcyclicAfterAssignment(ctx context.Context, user *entity.User, proposedSupervisorID int64) (bool, error) {
	if user.ID == proposedSupervisorID {
		return false, nil
	}

	visited := make(map[int64]bool)
	currentID := proposedSupervisorID

	for {
		if currentID == user.ID {
			return false, nil
		}
		if visited[currentID] {
			// Pre-existing cycle above the proposed supervisor; the new edge
			// does not reach user, but the graph is already corrupt.
			return false, nil
		}
		visited[currentID] = true

		current, err := r.users.GetByID(ctx, currentID)
		if err != nil {
			return false, fmt.Errorf("resolve supervisor %d: %w", currentID, err)
		}
		if current == nil || current.SupervisorID == nil {
			return true, nil
		}
		currentID = *current.SupervisorID
	}
}

// ValidateAssignment wraps IsAcyclicAfterAssignment into the precondition the
// write path must run before persisting a supervisor edge.
func (r *Resolver) ValidateAssignment(ctx context.Context, user *entity.User, proposedSupervisorID int64) error {
	ok, err := r.IsAcyclicAfterAssignment(ctx, user, proposedSupervisorID)
	if err != nil {
		return err
	}
	if !ok {
		return &workflow.CircularHierarchyError{UserID: user.ID, SupervisorID: proposedSupervisorID}
	}
	return nil
}
