package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

const requestColumns = `id, request_number, item, description, quantity, unit, category,
	delivery_address, reason, created_by, status, approval_level, last_approver_id,
	revision_count, revision_notes, version, created_at, submitted_at, updated_at`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new request row
func (r *RequestRepository) Create(ctx context.Context, request *entity.Request) error {
	query := `
		INSERT INTO requests (
			request_number, item, description, quantity, unit, category,
			delivery_address, reason, created_by, status, approval_level,
			last_approver_id, revision_count, revision_notes, version,
			created_at, submitted_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
	`

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		request.RequestNumber,
		request.Item,
		request.Description,
		request.Quantity,
		request.Unit,
		request.Category,
		request.DeliveryAddress,
		request.Reason,
		request.CreatedBy,
		string(request.Status),
		request.ApprovalLevel,
		request.LastApproverID,
		request.RevisionCount,
		request.RevisionNotes,
		request.CreatedAt,
		request.SubmittedAt,
		request.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = id
	request.Version = 1
	return nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = ?`, requestColumns)
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByRequestNumber retrieves a request by its human-readable number
func (r *RequestRepository) GetByRequestNumber(ctx context.Context, number string) (*entity.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE request_number = ?`, requestColumns)
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, number))
}

// Update writes the row guarded by the optimistic version check. A concurrent
// writer that committed first makes the check fail with zero rows affected.
func (r *RequestRepository) Update(ctx context.Context, request *entity.Request) error {
	query := `
		UPDATE requests SET
			item = ?, description = ?, quantity = ?, unit = ?, category = ?,
			delivery_address = ?, reason = ?, status = ?, approval_level = ?,
			last_approver_id = ?, revision_count = ?, revision_notes = ?,
			submitted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		request.Item,
		request.Description,
		request.Quantity,
		request.Unit,
		request.Category,
		request.DeliveryAddress,
		request.Reason,
		string(request.Status),
		request.ApprovalLevel,
		request.LastApproverID,
		request.RevisionCount,
		request.RevisionNotes,
		request.SubmittedAt,
		request.UpdatedAt,
		request.ID,
		request.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", request.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return &workflow.ConcurrencyConflictError{RequestID: request.ID}
	}

	request.Version++
	return nil
}

// List retrieves requests with pagination, newest first
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*entity.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, requestColumns)

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListByCreator retrieves one user's requests with pagination, newest first
func (r *RequestRepository) ListByCreator(ctx context.Context, creatorID int64, limit, offset int) ([]*entity.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE created_by = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, requestColumns)

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, creatorID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list requests by creator", zap.Int64("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListByStatus retrieves all requests currently in any of the given statuses
func (r *RequestRepository) ListByStatus(ctx context.Context, statuses []workflow.Status) ([]*entity.Request, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE status IN (%s) ORDER BY created_at DESC, id DESC`,
		requestColumns, placeholders)

	args := make([]interface{}, len(statuses))
	for i, status := range statuses {
		args[i] = string(status)
	}

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests by status", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListCompletedInPeriod returns completed requests whose last update falls in
// [start, end]. Consumed by the archive collaborator.
func (r *RequestRepository) ListCompletedInPeriod(ctx context.Context, start, end time.Time) ([]*entity.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM requests
		WHERE status = ? AND updated_at >= ? AND updated_at <= ?
		ORDER BY created_at ASC, id ASC
	`, requestColumns)

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, string(workflow.StatusCompleted), start, end)
	if err != nil {
		r.logger.Error("Failed to list completed requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list completed requests: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// DeleteByIDs bulk-deletes requests; approval history rows cascade
func (r *RequestRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(`DELETE FROM requests WHERE id IN (%s)`, placeholders)

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := executorFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to delete requests", zap.Int("count", len(ids)), zap.Error(err))
		return fmt.Errorf("failed to delete requests: %w", err)
	}
	return nil
}

func (r *RequestRepository) scanOne(row *sql.Row) (*entity.Request, error) {
	request, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan request", zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

func (r *RequestRepository) scanMany(rows *sql.Rows) ([]*entity.Request, error) {
	var requests []*entity.Request
	for rows.Next() {
		request, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func scanRequest(scan func(dest ...interface{}) error) (*entity.Request, error) {
	var request entity.Request
	var status string
	var lastApproverID sql.NullInt64
	var submittedAt sql.NullTime

	err := scan(
		&request.ID,
		&request.RequestNumber,
		&request.Item,
		&request.Description,
		&request.Quantity,
		&request.Unit,
		&request.Category,
		&request.DeliveryAddress,
		&request.Reason,
		&request.CreatedBy,
		&status,
		&request.ApprovalLevel,
		&lastApproverID,
		&request.RevisionCount,
		&request.RevisionNotes,
		&request.Version,
		&request.CreatedAt,
		&submittedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	request.Status = workflow.Status(status)
	if lastApproverID.Valid {
		request.LastApproverID = &lastApproverID.Int64
	}
	if submittedAt.Valid {
		request.SubmittedAt = &submittedAt.Time
	}
	return &request, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
