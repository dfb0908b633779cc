package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockroom/internal/domain"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateImage(ctx context.Context, id int64, image string) error
	UpdateStatus(ctx context.Context, id int64, active bool) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	u.id, u.name, u.username, u.password, u.user_level, u.image, u.status, u.last_login,
	COALESCE(g.group_name, '')
`

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.PasswordHash,
		&user.Level,
		&user.Image,
		&user.Active,
		&lastLogin,
		&user.GroupName,
	)
	if err != nil {
		return nil, err
	}
	user.LastLogin = nullableTime(lastLogin)
	return user, nil
}

func translateUserError(err error) error {
	code, constraint := constraintViolation(err)
	switch {
	case code == uniqueViolation:
		return domain.ErrUsernameTaken
	case code == foreignKeyViolation && constraint == "users_user_level_fkey":
		return domain.ErrUnknownLevel
	case code == foreignKeyViolation && constraint == "sales_created_by_fkey":
		return domain.ErrUserHasSales
	}
	return nil
}

// Create inserts a new user and fills in its generated id
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Image == "" {
		user.Image = domain.DefaultImage
	}

	query := `
		INSERT INTO users (name, username, password, user_level, image, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.Level,
		user.Image,
		user.Active,
	).Scan(&user.ID)
	if err != nil {
		if domainErr := translateUserError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update writes the editable account fields
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, username = $3, user_level = $4, status = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Username, user.Level, user.Active)
	if err != nil {
		if domainErr := translateUserError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectOneRow(result, domain.ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

func (r *userRepository) UpdateImage(ctx context.Context, id int64, image string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET image = $2 WHERE id = $1`, id, image)
	if err != nil {
		return fmt.Errorf("failed to update user image: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

func (r *userRepository) UpdateStatus(ctx context.Context, id int64, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET status = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// Delete removes a user. Users with attributed sales cannot be deleted.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if domainErr := translateUserError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN user_groups g ON g.group_level = u.user_level
		WHERE u.id = $1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByUsername retrieves a user by username using parameterized queries
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN user_groups g ON g.group_level = u.user_level
		WHERE u.username = $1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return user, nil
}

// List returns all users ordered by name
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN user_groups g ON g.group_level = u.user_level
		ORDER BY u.name ASC, u.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
