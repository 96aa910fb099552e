package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// HistoryRepository implements port.HistoryRepository. The table is
// append-only; this type exposes no update or delete.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			request_id, user_id, action, level, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		history.RequestID,
		history.UserID,
		string(history.Action),
		history.Level,
		history.Notes,
		history.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// ListByRequestID retrieves all history records for a request, newest first.
// The id tiebreak keeps rows written in one transaction ordered correctly.
func (r *HistoryRepository) ListByRequestID(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, request_id, user_id, action, level, notes, created_at
		FROM approval_history
		WHERE request_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []*entity.ApprovalHistory
	for rows.Next() {
		var record entity.ApprovalHistory
		var action string
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.UserID,
			&action,
			&record.Level,
			&record.Notes,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.Action = workflow.Action(action)
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
