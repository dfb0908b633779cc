package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/domain"
)

// GroupRepository defines the interface for role group data access
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	Update(ctx context.Context, group *domain.Group) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Group, error)
	FindByLevel(ctx context.Context, level int) (*domain.Group, error)
	List(ctx context.Context) ([]*domain.Group, error)
}

type groupRepository struct {
	db DBTX
}

func NewGroupRepository(db DBTX) GroupRepository {
	return &groupRepository{db: db}
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	group := &domain.Group{}
	if err := row.Scan(&group.ID, &group.Name, &group.Level, &group.Active); err != nil {
		return nil, err
	}
	return group, nil
}

func translateGroupError(err error) error {
	code, constraint := constraintViolation(err)
	switch {
	case code == uniqueViolation && constraint == "user_groups_group_level_key":
		return domain.ErrGroupLevelTaken
	case code == uniqueViolation:
		return domain.ErrGroupNameTaken
	case code == foreignKeyViolation:
		return domain.ErrGroupInUse
	case code == checkViolation:
		return domain.ErrInvalidLevel
	}
	return nil
}

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO user_groups (group_name, group_level, group_status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, group.Name, group.Level, group.Active).Scan(&group.ID)
	if err != nil {
		if domainErr := translateGroupError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// Update renames or re-levels a group. Users holding the old level follow the
// change through the foreign key.
func (r *groupRepository) Update(ctx context.Context, group *domain.Group) error {
	query := `
		UPDATE user_groups
		SET group_name = $2, group_level = $3, group_status = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.Level, group.Active)
	if err != nil {
		if domainErr := translateGroupError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to update group: %w", err)
	}
	return expectOneRow(result, domain.ErrGroupNotFound)
}

func (r *groupRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE id = $1`, id)
	if err != nil {
		if domainErr := translateGroupError(err); domainErr != nil {
			return domainErr
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return expectOneRow(result, domain.ErrGroupNotFound)
}

func (r *groupRepository) FindByID(ctx context.Context, id int64) (*domain.Group, error) {
	query := `SELECT id, group_name, group_level, group_status FROM user_groups WHERE id = $1`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group by ID: %w", err)
	}
	return group, nil
}

func (r *groupRepository) FindByLevel(ctx context.Context, level int) (*domain.Group, error) {
	query := `SELECT id, group_name, group_level, group_status FROM user_groups WHERE group_level = $1`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, level))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group by level: %w", err)
	}
	return group, nil
}

func (r *groupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_name, group_level, group_status
		FROM user_groups
		ORDER BY group_level ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*domain.Group{}
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}
