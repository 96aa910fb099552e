package service

import (
	"context"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// AuditService exposes the append-only approval trail. Pure read component;
// ordering is the only rule it owns.
type AuditService interface {
	// HistoryFor returns every transition recorded for a request, newest first
	HistoryFor(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error)
}

type auditServiceImpl struct {
	requestRepo port.RequestRepository
	historyRepo port.HistoryRepository
	logger      Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(requestRepo port.RequestRepository, historyRepo port.HistoryRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// HistoryFor returns the audit trail for a request, newest first
func (s *auditServiceImpl) HistoryFor(ctx context.Context, requestID int64) ([]*entity.ApprovalHistory, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, &workflow.NotFoundError{Kind: "request", ID: requestID}
	}

	records, err := s.historyRepo.ListByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to load approval history", "request_id", requestID, "error", err)
		return nil, err
	}
	return records, nil
}
