package entity

import (
	"time"

	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// Request is the workflowed purchase request aggregate. Approval routing is
// never stored on the row: the approver at level N is the Nth ancestor in the
// creator's live supervisor chain, recomputed on every query.
type Request struct {
	ID              int64           `json:"id"`
	RequestNumber   string          `json:"request_number"`
	Item            string          `json:"item"`
	Description     string          `json:"description"`
	Quantity        float64         `json:"quantity"`
	Unit            string          `json:"unit"`
	Category        string          `json:"category"`
	DeliveryAddress string          `json:"delivery_address"`
	Reason          string          `json:"reason"`
	CreatedBy       int64           `json:"created_by"`
	Status          workflow.Status `json:"status"`
	ApprovalLevel   int             `json:"approval_level"`
	LastApproverID  *int64          `json:"last_approver_id,omitempty"`
	RevisionCount   int             `json:"revision_count"`
	RevisionNotes   string          `json:"revision_notes,omitempty"`
	Version         int64           `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ApprovalHistory is one immutable audit row per transition. Rows are created
// by the orchestrator in the same transaction as the request mutation and are
// never updated or deleted by the engine.
type ApprovalHistory struct {
	ID        int64           `json:"id"`
	RequestID int64           `json:"request_id"`
	UserID    int64           `json:"user_id"`
	Action    workflow.Action `json:"action"`
	Level     int             `json:"level"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
