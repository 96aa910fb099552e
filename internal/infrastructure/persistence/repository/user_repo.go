package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-workflow/internal/application/port"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
)

const userColumns = `id, username, first_name, last_name, supervisor_id, active, is_admin, can_purchase, created_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user row
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (
			username, first_name, last_name, supervisor_id, active, is_admin, can_purchase, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.SupervisorID,
		user.Active,
		user.IsAdmin,
		user.CanPurchase,
		user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("username", user.Username), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = ?`, userColumns)
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = ?`, userColumns)
	return r.scanOne(executorFor(ctx, r.db).QueryRowContext(ctx, query, username))
}

// ListActive returns all active users
func (r *UserRepository) ListActive(ctx context.Context) ([]*entity.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE active = 1 ORDER BY id ASC`, userColumns)

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateSupervisor persists the supervisor edge. Acyclicity is validated by
// the caller before this runs.
func (r *UserRepository) UpdateSupervisor(ctx context.Context, userID int64, supervisorID *int64) error {
	query := `UPDATE users SET supervisor_id = ? WHERE id = ?`

	if _, err := executorFor(ctx, r.db).ExecContext(ctx, query, supervisorID, userID); err != nil {
		r.logger.Error("Failed to update supervisor", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to update supervisor: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*entity.User, error) {
	user, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to scan user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func scanUser(scan func(dest ...interface{}) error) (*entity.User, error) {
	var user entity.User
	var supervisorID sql.NullInt64

	err := scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&supervisorID,
		&user.Active,
		&user.IsAdmin,
		&user.CanPurchase,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if supervisorID.Valid {
		user.SupervisorID = &supervisorID.Int64
	}
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
