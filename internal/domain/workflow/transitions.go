package workflow

// transitions is the static table of legal status transitions. A status that
// is absent (or maps to an empty list) is terminal.
var transitions = map[Status][]Status{
	StatusDraft:             {StatusPending},
	StatusPending:           {StatusInReview, StatusApproved, StatusRejected, StatusRevisionRequested},
	StatusInReview:          {StatusInReview, StatusApproved, StatusRejected, StatusRevisionRequested},
	StatusRevisionRequested: {StatusPending},
	StatusApproved:          {StatusPurchasing, StatusRejected},
	StatusPurchasing:        {StatusOrdered, StatusRejected, StatusRevisionRequested},
	StatusOrdered:           {StatusDelivered},
	StatusDelivered:         {StatusCompleted},
	StatusRejected:          {},
	StatusCompleted:         {},
}

// CanTransition returns true if moving from one status to another is legal
func CanTransition(from, to Status) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// ValidTargets returns the statuses reachable from the given status
func ValidTargets(from Status) []Status {
	targets := transitions[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// Transition validates a status change, returning a typed error when illegal
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
