package port

import (
	"context"
	"time"

	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, request *entity.Request) error
	GetByID(ctx context.Context, id int64) (*entity.Request, error)
	GetByRequestNumber(ctx context.Context, number string) (*entity.Request, error)

	// Update writes the row guarded by the optimistic version check and bumps
	// request.Version on success. A stale version yields *workflow.ConcurrencyConflictError.
	Update(ctx context.Context, request *entity.Request) error

	List(ctx context.Context, limit, offset int) ([]*entity.Request, error)
	ListByCreator(ctx context.Context, creatorID int64, limit, offset int) ([]*entity.Request, error)
	ListByStatus(ctx context.Context, statuses []workflow.Status) ([]*entity.Request, error)

	// ListCompletedInPeriod and DeleteByIDs form the archive query surface.
	// Deletion cascades to approval history; time-eligibility policy lives in
	// the archive collaborator, not here.
	ListCompletedInPeriod(ctx context.Context, start, end time.Time) ([]*entity.Request, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// HistoryRepository defines persistence operations for ApprovalHistory.
// Rows are append-only; there is deliberately no update or single-row delete.
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error

	// ListByRequestID returns history newest-first for display; rows are
	// physically appended oldest-first.
	ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error)
}

// UserRepository defines persistence operations for the user directory
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	ListActive(ctx context.Context) ([]*entity.User, error)

	// UpdateSupervisor persists the supervisor edge. Cycle validation is the
	// caller's precondition and must run before this inside one transaction.
	UpdateSupervisor(ctx context.Context, userID int64, supervisorID *int64) error
}

// TransactionManager runs a function within a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
