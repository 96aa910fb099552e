package service

import (
	"context"
	"fmt"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/hierarchy"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// UserService is the directory write hook the engine exposes. SetSupervisor
// runs the cycle precondition before any persistence side effect.
type UserService interface {
	Create(ctx context.Context, user *entity.User) error
	Get(ctx context.Context, id int64) (*entity.User, error)
	ListActive(ctx context.Context) ([]*entity.User, error)
	SetSupervisor(ctx context.Context, userID int64, supervisorID *int64) error
	ApprovalChain(ctx context.Context, userID int64) ([]*entity.User, error)
}

type userServiceImpl struct {
	userRepo  port.UserRepository
	resolver  *hierarchy.Resolver
	txManager port.TransactionManager
	logger    Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, resolver *hierarchy.Resolver, txManager port.TransactionManager, logger Logger) UserService {
	return &userServiceImpl{
		userRepo:  userRepo,
		resolver:  resolver,
		txManager: txManager,
		logger:    logger,
	}
}

// Create registers a new user, validating any initial supervisor edge
func (s *userServiceImpl) Create(ctx context.Context, user *entity.User) error {
	if user.Username == "" {
		return fmt.Errorf("username is required")
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if user.SupervisorID != nil {
			supervisor, err := s.userRepo.GetByID(txCtx, *user.SupervisorID)
			if err != nil {
				return err
			}
			if supervisor == nil {
				return &workflow.NotFoundError{Kind: "user", ID: *user.SupervisorID}
			}
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return err
		}
		s.logger.Info("User created", "id", user.ID, "username", user.Username)
		return nil
	})
}

// Get retrieves a user by ID
func (s *userServiceImpl) Get(ctx context.Context, id int64) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &workflow.NotFoundError{Kind: "user", ID: id}
	}
	return user, nil
}

// ListActive returns all active users
func (s *userServiceImpl) ListActive(ctx context.Context) ([]*entity.User, error) {
	return s.userRepo.ListActive(ctx)
}

// SetSupervisor rewires a user's supervisor edge. The acyclicity check runs
// inside the transaction before the write; a rejected assignment leaves the
// graph untouched.
func (s *userServiceImpl) SetSupervisor(ctx context.Context, userID int64, supervisorID *int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.userRepo.GetByID(txCtx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return &workflow.NotFoundError{Kind: "user", ID: userID}
		}

		if supervisorID != nil {
			supervisor, err := s.userRepo.GetByID(txCtx, *supervisorID)
			if err != nil {
				return err
			}
			if supervisor == nil {
				return &workflow.NotFoundError{Kind: "user", ID: *supervisorID}
			}
			if err := s.resolver.ValidateAssignment(txCtx, user, *supervisorID); err != nil {
				return err
			}
		}

		return s.userRepo.UpdateSupervisor(txCtx, userID, supervisorID)
	})
	if err != nil {
		s.logger.Error("Failed to set supervisor", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("Supervisor updated", "user_id", userID)
	return nil
}

// ApprovalChain returns the ordered supervisors above a user, nearest first
func (s *userServiceImpl) ApprovalChain(ctx context.Context, userID int64) ([]*entity.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolver.ApprovalChain(ctx, user)
}
