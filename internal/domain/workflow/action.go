package workflow

// Action identifies what happened in an approval history entry
type Action string

const (
	ActionSubmitted          Action = "submitted"
	ActionApproved           Action = "approved"
	ActionRejected           Action = "rejected"
	ActionRevisionRequested  Action = "revision_requested"
	ActionFinalApproved      Action = "final_approved"
	ActionAssignedPurchasing Action = "assigned_purchasing"
	ActionOrdered            Action = "ordered"
	ActionDelivered          Action = "delivered"
	ActionCompleted          Action = "completed"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
