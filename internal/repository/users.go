package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yingshengwanyue/zhouzhou/internal/models"
)

// CreateUser inserts a new user and fills in its id and creation time.
// A username collision is reported as models.ErrDuplicateUsername.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC().Truncate(time.Second)

	query, args, err := r.sb.
		Insert("users").
		Columns("username", "password_hash", "created_at").
		Values(user.Username, user.PasswordHash, toUnix(now)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	return nil
}

// FindUserByUsername retrieves a user by exact username.
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query, args, err := r.sb.
		Select("id", "username", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user select: %w", err)
	}

	user := &models.User{}
	var createdAt int64
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.CreatedAt = fromUnix(createdAt)
	return user, nil
}

// CountUsers returns the number of provisioned accounts.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build user count: %w", err)
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
