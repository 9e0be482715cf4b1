package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

func (c *SQLite) SaveBlob(ctx context.Context, blob e.MediaBlob) error {
	_, err := c.db.ExecContext(
		ctx,
		"INSERT INTO media_blobs (name, category, data, created_at) VALUES (?, ?, ?, ?)",
		blob.Name, string(blob.Category), blob.Data, c.now().Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("blob %s: %w", blob.Key(), e.ErrAlreadyExists)
		}
		return persistence("insert blob", err)
	}

	return nil
}

func (c *SQLite) GetBlob(ctx context.Context, name string, category e.Category) (e.MediaBlob, error) {
	blob := e.MediaBlob{Name: name, Category: category}

	err := c.db.QueryRowContext(
		ctx,
		"SELECT data FROM media_blobs WHERE name = ? AND category = ?",
		name, string(category),
	).Scan(&blob.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e.MediaBlob{}, fmt.Errorf("blob %s: %w", blob.Key(), e.ErrNotFound)
		}
		return e.MediaBlob{}, persistence("select blob", err)
	}

	return blob, nil
}

func (c *SQLite) BlobExists(ctx context.Context, name string, category e.Category) (bool, error) {
	var one int
	err := c.db.QueryRowContext(
		ctx,
		"SELECT 1 FROM media_blobs WHERE name = ? AND category = ? LIMIT 1",
		name, string(category),
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, persistence("select blob", err)
	}

	return true, nil
}

// DeleteBlob removes a blob, ErrNotFound if it did not exist.
func (c *SQLite) DeleteBlob(ctx context.Context, name string, category e.Category) error {
	res, err := c.db.ExecContext(
		ctx,
		"DELETE FROM media_blobs WHERE name = ? AND category = ?",
		name, string(category),
	)
	if err != nil {
		return persistence("delete blob", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return persistence("delete blob", err)
	}
	if n == 0 {
		return fmt.Errorf("blob %s/%s: %w", category, name, e.ErrNotFound)
	}

	return nil
}

// ListBlobs lists stored blobs without their payload, ordered by category then name.
func (c *SQLite) ListBlobs(ctx context.Context) ([]e.MediaInfo, error) {
	rows, err := c.db.QueryContext(
		ctx,
		"SELECT name, category, length(data) FROM media_blobs ORDER BY category, name",
	)
	if err != nil {
		return nil, persistence("list blobs", err)
	}
	defer func() { _ = rows.Close() }()

	var list []e.MediaInfo
	for rows.Next() {
		var (
			info     e.MediaInfo
			category string
		)
		if err := rows.Scan(&info.Name, &category, &info.Size); err != nil {
			return nil, persistence("scan blob", err)
		}
		info.Category = e.Category(category)
		list = append(list, info)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence("list blobs", err)
	}

	return list, nil
}

// RandomBlob picks one blob of the category uniformly at random.
func (c *SQLite) RandomBlob(ctx context.Context, category e.Category) (e.MediaBlob, error) {
	blob := e.MediaBlob{Category: category}

	err := c.db.QueryRowContext(
		ctx,
		"SELECT name, data FROM media_blobs WHERE category = ? ORDER BY RANDOM() LIMIT 1",
		string(category),
	).Scan(&blob.Name, &blob.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e.MediaBlob{}, fmt.Errorf("%s: %w", category, e.ErrEmptyCategory)
		}
		return e.MediaBlob{}, persistence("select random blob", err)
	}

	return blob, nil
}

func (c *SQLite) GetHandle(ctx context.Context, key string) (string, error) {
	var handle string
	err := c.db.QueryRowContext(
		ctx,
		"SELECT file_handle FROM cached_handles WHERE media_key = ?",
		key,
	).Scan(&handle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("handle %s: %w", key, e.ErrNotFound)
		}
		return "", persistence("select handle", err)
	}

	return handle, nil
}

// PutHandle stores or replaces the handle for a media key.
func (c *SQLite) PutHandle(ctx context.Context, key, handle string) error {
	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO cached_handles (media_key, file_handle, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(media_key) DO UPDATE
			    SET file_handle = excluded.file_handle, created_at = excluded.created_at`,
		key, handle, c.now().Unix(),
	)
	if err != nil {
		return persistence("upsert handle", err)
	}
	return nil
}

func (c *SQLite) DeleteHandle(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cached_handles WHERE media_key = ?", key)
	if err != nil {
		return persistence("delete handle", err)
	}
	return nil
}
