package service

import (
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// CapabilityFunc decides whether an actor may perform an action on a request
// independent of routing position. It covers the admin override and the
// purchasing capability; positional routing stays in the orchestrator.
type CapabilityFunc func(actor *entity.User, action workflow.Action, request *entity.Request) bool

// DefaultCapabilities resolves capabilities from the explicit boolean flags
// on the user row. There is no name or group-string matching here.
func DefaultCapabilities(actor *entity.User, action workflow.Action, request *entity.Request) bool {
	if actor == nil || !actor.Active {
		return false
	}
	if actor.IsAdmin {
		return true
	}

	switch action {
	case workflow.ActionAssignedPurchasing, workflow.ActionOrdered, workflow.ActionDelivered:
		return actor.CanPurchase
	case workflow.ActionRejected:
		// Purchasing may reject only once the request is in their queue
		return request != nil && request.Status == workflow.StatusPurchasing && actor.CanPurchase
	default:
		return false
	}
}
