package workflow

// Status represents a request status in the procurement lifecycle
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPending           Status = "pending"
	StatusInReview          Status = "in_review"
	StatusRevisionRequested Status = "revision_requested"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
	StatusPurchasing        Status = "purchasing"
	StatusOrdered           Status = "ordered"
	StatusDelivered         Status = "delivered"
	StatusCompleted         Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusDraft:             true,
	StatusPending:           true,
	StatusInReview:          true,
	StatusRevisionRequested: true,
	StatusApproved:          true,
	StatusRejected:          true,
	StatusPurchasing:        true,
	StatusOrdered:           true,
	StatusDelivered:         true,
	StatusCompleted:         true,
}

var terminalStatuses = map[Status]bool{
	StatusRejected:  true,
	StatusCompleted: true,
}

// IsTerminal returns true if the status is terminal (no further transitions allowed)
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a known request status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
