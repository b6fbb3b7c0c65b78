package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/yingshengwanyue/zhouzhou/internal/models"
)

var entryColumns = []string{"id", "user_id", "title", "content", "images", "created_at", "updated_at"}

// CreateEntry inserts a diary entry for its owning user and fills in the
// assigned id and timestamps. Both timestamps are set to the same instant.
func (r *Repository) CreateEntry(ctx context.Context, entry *models.DiaryEntry) error {
	images, err := imagesToRow(entry.Images)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)

	query, args, err := r.sb.
		Insert("diary_entries").
		Columns("user_id", "title", "content", "images", "created_at", "updated_at").
		Values(entry.UserID, entry.Title, entry.Content, images, toUnix(now), toUnix(now)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build entry insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

// ListEntries returns all entries owned by the user, newest created first.
func (r *Repository) ListEntries(ctx context.Context, userID int64) ([]models.DiaryEntry, error) {
	builder := r.sb.
		Select(entryColumns...).
		From("diary_entries").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")

	return r.selectEntries(ctx, builder)
}

// GetEntry returns a single entry owned by the user. An absent id and an
// id owned by someone else are both reported as models.ErrNotFound.
func (r *Repository) GetEntry(ctx context.Context, userID, id int64) (*models.DiaryEntry, error) {
	query, args, err := r.sb.
		Select(entryColumns...).
		From("diary_entries").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build entry select: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// UpdateEntry rewrites title, content and image list of an owned entry and
// recomputes its updated timestamp. Returns the number of affected rows:
// 0 means the entry does not exist or belongs to another user.
func (r *Repository) UpdateEntry(ctx context.Context, userID, id int64, title, content string, images []string) (int64, error) {
	encoded, err := imagesToRow(images)
	if err != nil {
		return 0, err
	}

	query, args, err := r.sb.
		Update("diary_entries").
		Set("title", title).
		Set("content", content).
		Set("images", encoded).
		Set("updated_at", toUnix(time.Now().UTC().Truncate(time.Second))).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build entry update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// DeleteEntry removes an owned entry. Same 0/1 semantics as UpdateEntry;
// a second delete of the same id reports 0.
func (r *Repository) DeleteEntry(ctx context.Context, userID, id int64) (int64, error) {
	query, args, err := r.sb.
		Delete("diary_entries").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build entry delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

// SearchEntries returns the user's entries whose title or content contains
// the query as a literal, case-insensitive substring, newest created first.
func (r *Repository) SearchEntries(ctx context.Context, userID int64, query string) ([]models.DiaryEntry, error) {
	pattern := "%" + escapeLike(query) + "%"

	builder := r.sb.
		Select(entryColumns...).
		From("diary_entries").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Or{
			sq.Expr(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(content) LIKE LOWER(?) ESCAPE '\'`, pattern),
		}).
		OrderBy("created_at DESC", "id DESC")

	return r.selectEntries(ctx, builder)
}

// escapeLike neutralizes LIKE metacharacters so user input is matched as
// literal text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *Repository) selectEntries(ctx context.Context, builder sq.SelectBuilder) ([]models.DiaryEntry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build entry select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []models.DiaryEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*models.DiaryEntry, error) {
	var (
		entry     models.DiaryEntry
		images    string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Content, &images, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	entry.Images, err = imagesFromRow(images)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = fromUnix(createdAt)
	entry.UpdatedAt = fromUnix(updatedAt)
	return &entry, nil
}

// The image list is serialized as JSON only at this boundary; every other
// layer sees a native []string.
func imagesToRow(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("failed to encode image list: %w", err)
	}
	return string(data), nil
}

func imagesFromRow(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("failed to decode image list: %w", err)
	}
	if images == nil {
		images = []string{}
	}
	return images, nil
}
