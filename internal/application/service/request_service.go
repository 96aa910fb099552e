package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/hierarchy"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateRequestInput carries the business payload for a new draft request
type CreateRequestInput struct {
	Item            string
	Description     string
	Quantity        float64
	Unit            string
	Category        string
	DeliveryAddress string
	Reason          string
}

// RequestService is the approval orchestrator: the only writer of Request and
// ApprovalHistory state. Every mutating operation re-reads the request inside
// one transaction, recomputes routing against the live hierarchy, validates
// the actor, and commits the status change and audit row together.
type RequestService interface {
	Create(ctx context.Context, actor *entity.User, input CreateRequestInput) (*entity.Request, error)
	Get(ctx context.Context, id int64) (*entity.Request, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Request, error)
	ListByCreator(ctx context.Context, creatorID int64, limit, offset int) ([]*entity.Request, error)

	Submit(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error)
	Approve(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error)
	Reject(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error)
	RequestRevision(ctx context.Context, requestID int64, actor *entity.User, notes, reason string) (*entity.Request, error)
	MarkPurchased(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error)
	MarkDelivered(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error)
	MarkCompleted(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error)

	NextApprover(ctx context.Context, request *entity.Request) (*entity.User, error)
	IsFullyApproved(ctx context.Context, request *entity.Request) (bool, error)
	PendingApprovals(ctx context.Context, actor *entity.User) ([]*entity.Request, error)
}

type requestServiceImpl struct {
	requestRepo  port.RequestRepository
	historyRepo  port.HistoryRepository
	userRepo     port.UserRepository
	resolver     *hierarchy.Resolver
	capabilities CapabilityFunc
	txManager    port.TransactionManager
	now          func() time.Time
	logger       Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	requestRepo port.RequestRepository,
	historyRepo port.HistoryRepository,
	userRepo port.UserRepository,
	resolver *hierarchy.Resolver,
	capabilities CapabilityFunc,
	txManager port.TransactionManager,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		requestRepo:  requestRepo,
		historyRepo:  historyRepo,
		userRepo:     userRepo,
		resolver:     resolver,
		capabilities: capabilities,
		txManager:    txManager,
		now:          time.Now,
		logger:       logger,
	}
}

// Create builds a draft request owned by the actor
func (s *requestServiceImpl) Create(ctx context.Context, actor *entity.User, input CreateRequestInput) (*entity.Request, error) {
	if input.Item == "" {
		return nil, fmt.Errorf("item is required")
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if !entity.IsValidUnit(input.Unit) {
		return nil, fmt.Errorf("unknown unit %q", input.Unit)
	}

	request := &entity.Request{
		Item:            input.Item,
		Description:     input.Description,
		Quantity:        input.Quantity,
		Unit:            input.Unit,
		Category:        input.Category,
		DeliveryAddress: input.DeliveryAddress,
		Reason:          input.Reason,
		CreatedBy:       actor.ID,
		Status:          workflow.StatusDraft,
		CreatedAt:       s.now(),
		UpdatedAt:       s.now(),
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		number, err := s.generateRequestNumber(txCtx)
		if err != nil {
			return err
		}
		request.RequestNumber = number
		return s.requestRepo.Create(txCtx, request)
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "created_by", actor.ID)
		return nil, err
	}

	s.logger.Info("Request created", "id", request.ID, "request_number", request.RequestNumber)
	return request, nil
}

// generateRequestNumber produces a unique REQ-YYYY-XXXXXX identifier
func (s *requestServiceImpl) generateRequestNumber(ctx context.Context) (string, error) {
	year := s.now().Year()
	for attempt := 0; attempt < 5; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
		number := fmt.Sprintf("REQ-%d-%s", year, suffix)

		existing, err := s.requestRepo.GetByRequestNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate unique request number")
}

// Get retrieves a request by ID
func (s *requestServiceImpl) Get(ctx context.Context, id int64) (*entity.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, &workflow.NotFoundError{Kind: "request", ID: id}
	}
	return request, nil
}

// List retrieves requests with pagination
func (s *requestServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.List(ctx, limit, offset)
}

// ListByCreator retrieves a single user's requests with pagination
func (s *requestServiceImpl) ListByCreator(ctx context.Context, creatorID int64, limit, offset int) ([]*entity.Request, error) {
	return s.requestRepo.ListByCreator(ctx, creatorID, limit, offset)
}

// NextApprover returns the user at position approval_level in the creator's
// live supervisor chain, or nil when none remain. Recomputed on every call,
// never cached on the request, so hierarchy edits take effect immediately.
func (s *requestServiceImpl) NextApprover(ctx context.Context, request *entity.Request) (*entity.User, error) {
	next, _, err := s.routingPosition(ctx, request)
	return next, err
}

// IsFullyApproved reports whether no approvers remain after submission
func (s *requestServiceImpl) IsFullyApproved(ctx context.Context, request *entity.Request) (bool, error) {
	if request.Status == workflow.StatusDraft || request.Status == workflow.StatusRevisionRequested {
		return false, nil
	}
	next, _, err := s.routingPosition(ctx, request)
	if err != nil {
		return false, err
	}
	return next == nil, nil
}

// PendingApprovals returns pending/in-review requests routed to the actor
func (s *requestServiceImpl) PendingApprovals(ctx context.Context, actor *entity.User) ([]*entity.Request, error) {
	open, err := s.requestRepo.ListByStatus(ctx, []workflow.Status{workflow.StatusPending, workflow.StatusInReview})
	if err != nil {
		return nil, err
	}

	var mine []*entity.Request
	for _, request := range open {
		next, _, err := s.routingPosition(ctx, request)
		if err != nil {
			return nil, err
		}
		if next != nil && next.ID == actor.ID {
			mine = append(mine, request)
		}
	}
	return mine, nil
}

// routingPosition recomputes the approval chain and locates the next approver
func (s *requestServiceImpl) routingPosition(ctx context.Context, request *entity.Request) (*entity.User, []*entity.User, error) {
	creator, err := s.userRepo.GetByID(ctx, request.CreatedBy)
	if err != nil {
		return nil, nil, err
	}
	if creator == nil {
		return nil, nil, &workflow.NotFoundError{Kind: "user", ID: request.CreatedBy}
	}

	chain, err := s.resolver.ApprovalChain(ctx, creator)
	if err != nil {
		return nil, nil, err
	}

	if request.ApprovalLevel < len(chain) {
		return chain[request.ApprovalLevel], chain, nil
	}
	return nil, chain, nil
}

// Submit moves a draft or revision-requested request into the approval flow.
// This is the only operation that resets approval_level and last_approver.
func (s *requestServiceImpl) Submit(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "submit", func(txCtx context.Context, request *entity.Request) error {
		if actor.ID != request.CreatedBy {
			return workflow.ErrNotCreator
		}
		if request.Status != workflow.StatusDraft && request.Status != workflow.StatusRevisionRequested {
			return &workflow.InvalidStateError{Operation: "submit", Status: request.Status}
		}
		if err := workflow.Transition(request.Status, workflow.StatusPending); err != nil {
			return err
		}

		now := s.now()
		request.Status = workflow.StatusPending
		request.ApprovalLevel = 0
		request.LastApproverID = nil
		request.SubmittedAt = &now

		return s.commit(txCtx, request, actor, workflow.ActionSubmitted, 0, notes)
	})
}

// Approve applies one approval level by the current next approver (or admin)
func (s *requestServiceImpl) Approve(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "approve", func(txCtx context.Context, request *entity.Request) error {
		if request.Status == workflow.StatusApproved {
			return workflow.ErrAlreadyFullyApproved
		}
		if request.Status != workflow.StatusPending && request.Status != workflow.StatusInReview {
			return &workflow.InvalidStateError{Operation: "approve", Status: request.Status}
		}

		next, chain, err := s.routingPosition(txCtx, request)
		if err != nil {
			return err
		}
		if err := s.requireRoutedActor(actor, next, workflow.ActionApproved, request); err != nil {
			return err
		}

		request.ApprovalLevel++
		request.LastApproverID = &actor.ID

		newStatus := workflow.StatusInReview
		action := workflow.ActionApproved
		if request.ApprovalLevel >= len(chain) {
			newStatus = workflow.StatusApproved
			action = workflow.ActionFinalApproved
		}
		if err := workflow.Transition(request.Status, newStatus); err != nil {
			return err
		}
		request.Status = newStatus

		return s.commit(txCtx, request, actor, action, request.ApprovalLevel, notes)
	})
}

// Reject terminally rejects a request
func (s *requestServiceImpl) Reject(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "reject", func(txCtx context.Context, request *entity.Request) error {
		switch request.Status {
		case workflow.StatusPending, workflow.StatusInReview, workflow.StatusApproved, workflow.StatusPurchasing:
		default:
			return &workflow.InvalidStateError{Operation: "reject", Status: request.Status}
		}

		next, _, err := s.routingPosition(txCtx, request)
		if err != nil {
			return err
		}
		if err := s.requireRoutedActor(actor, next, workflow.ActionRejected, request); err != nil {
			return err
		}

		if err := workflow.Transition(request.Status, workflow.StatusRejected); err != nil {
			return err
		}
		request.Status = workflow.StatusRejected

		return s.commit(txCtx, request, actor, workflow.ActionRejected, request.ApprovalLevel, notes)
	})
}

// RequestRevision sends the request back to its creator for changes. The
// approval level and last approver are deliberately left untouched; only the
// subsequent Submit resets them.
func (s *requestServiceImpl) RequestRevision(ctx context.Context, requestID int64, actor *entity.User, notes, reason string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "request revision", func(txCtx context.Context, request *entity.Request) error {
		if request.Status != workflow.StatusPending && request.Status != workflow.StatusInReview {
			return &workflow.InvalidStateError{Operation: "request revision", Status: request.Status}
		}

		next, _, err := s.routingPosition(txCtx, request)
		if err != nil {
			return err
		}
		if err := s.requireRoutedActor(actor, next, workflow.ActionRevisionRequested, request); err != nil {
			return err
		}

		if err := workflow.Transition(request.Status, workflow.StatusRevisionRequested); err != nil {
			return err
		}
		request.Status = workflow.StatusRevisionRequested
		request.RevisionCount++
		request.RevisionNotes = reason

		return s.commit(txCtx, request, actor, workflow.ActionRevisionRequested, request.ApprovalLevel, notes)
	})
}

// MarkPurchased moves an approved request through purchasing to ordered
func (s *requestServiceImpl) MarkPurchased(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "mark purchased", func(txCtx context.Context, request *entity.Request) error {
		if !s.capabilities(actor, workflow.ActionOrdered, request) {
			return workflow.ErrCannotPurchase
		}
		if request.Status != workflow.StatusApproved && request.Status != workflow.StatusPurchasing {
			return &workflow.InvalidStateError{Operation: "mark purchased", Status: request.Status}
		}

		if request.Status == workflow.StatusApproved {
			if err := workflow.Transition(request.Status, workflow.StatusPurchasing); err != nil {
				return err
			}
			request.Status = workflow.StatusPurchasing
			if err := s.appendHistory(txCtx, request, actor, workflow.ActionAssignedPurchasing, request.ApprovalLevel, notes); err != nil {
				return err
			}
		}

		if err := workflow.Transition(request.Status, workflow.StatusOrdered); err != nil {
			return err
		}
		request.Status = workflow.StatusOrdered

		return s.commit(txCtx, request, actor, workflow.ActionOrdered, request.ApprovalLevel, notes)
	})
}

// MarkDelivered records delivery of an ordered request
func (s *requestServiceImpl) MarkDelivered(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "mark delivered", func(txCtx context.Context, request *entity.Request) error {
		if !s.capabilities(actor, workflow.ActionDelivered, request) {
			return workflow.ErrCannotPurchase
		}
		if request.Status != workflow.StatusOrdered {
			return &workflow.InvalidStateError{Operation: "mark delivered", Status: request.Status}
		}

		if err := workflow.Transition(request.Status, workflow.StatusDelivered); err != nil {
			return err
		}
		request.Status = workflow.StatusDelivered

		return s.commit(txCtx, request, actor, workflow.ActionDelivered, request.ApprovalLevel, notes)
	})
}

// MarkCompleted closes out a delivered request
func (s *requestServiceImpl) MarkCompleted(ctx context.Context, requestID int64, actor *entity.User, notes string) (*entity.Request, error) {
	return s.mutate(ctx, requestID, "mark completed", func(txCtx context.Context, request *entity.Request) error {
		if request.Status != workflow.StatusDelivered {
			return &workflow.InvalidStateError{Operation: "mark completed", Status: request.Status}
		}

		if err := workflow.Transition(request.Status, workflow.StatusCompleted); err != nil {
			return err
		}
		request.Status = workflow.StatusCompleted

		return s.commit(txCtx, request, actor, workflow.ActionCompleted, request.ApprovalLevel, notes)
	})
}

// requireRoutedActor enforces "only the correct next actor may act": the
// actor must be the freshly computed next approver or hold an overriding
// capability (admin, or purchasing for purchasing-phase rejects).
func (s *requestServiceImpl) requireRoutedActor(actor *entity.User, next *entity.User, action workflow.Action, request *entity.Request) error {
	if next != nil && next.ID == actor.ID {
		return nil
	}
	if s.capabilities(actor, action, request) {
		return nil
	}

	err := &workflow.NotNextApproverError{}
	if next != nil {
		err.ExpectedID = &next.ID
		err.ExpectedName = next.FullName()
	}
	return err
}

// mutate runs one orchestrator operation atomically: re-read the request
// inside the transaction, apply the operation, and fail without partial
// state when any step errors.
func (s *requestServiceImpl) mutate(ctx context.Context, requestID int64, operation string, fn func(ctx context.Context, request *entity.Request) error) (*entity.Request, error) {
	var request *entity.Request

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		request, err = s.requestRepo.GetByID(txCtx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return &workflow.NotFoundError{Kind: "request", ID: requestID}
		}
		return fn(txCtx, request)
	})
	if err != nil {
		s.logger.Error("Request operation failed", "operation", operation, "request_id", requestID, "error", err)
		return nil, err
	}

	s.logger.Info("Request operation applied",
		"operation", operation,
		"request_id", requestID,
		"status", request.Status.String(),
		"approval_level", request.ApprovalLevel)
	return request, nil
}

// commit writes the mutated request and its audit row together
func (s *requestServiceImpl) commit(ctx context.Context, request *entity.Request, actor *entity.User, action workflow.Action, level int, notes string) error {
	request.UpdatedAt = s.now()
	if err := s.requestRepo.Update(ctx, request); err != nil {
		return err
	}
	return s.appendHistory(ctx, request, actor, action, level, notes)
}

func (s *requestServiceImpl) appendHistory(ctx context.Context, request *entity.Request, actor *entity.User, action workflow.Action, level int, notes string) error {
	history := &entity.ApprovalHistory{
		RequestID: request.ID,
		UserID:    actor.ID,
		Action:    action,
		Level:     level,
		Notes:     notes,
		CreatedAt: s.now(),
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
