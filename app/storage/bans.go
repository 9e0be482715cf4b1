package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

func (c *SQLite) Ban(ctx context.Context, ban e.Ban) error {
	bannedAt := ban.BannedAt
	if bannedAt.IsZero() {
		bannedAt = c.now()
	}

	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO bans (user_id, user_name, banned_at) VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET user_name = excluded.user_name`,
		ban.UserID, ban.UserName, bannedAt.Unix(),
	)
	if err != nil {
		return persistence("insert ban", err)
	}
	return nil
}

func (c *SQLite) Unban(ctx context.Context, userID int64) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM bans WHERE user_id = ?", userID)
	if err != nil {
		return persistence("delete ban", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return persistence("delete ban", err)
	}
	if n == 0 {
		return fmt.Errorf("ban of %d: %w", userID, e.ErrNotFound)
	}
	return nil
}

func (c *SQLite) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, "SELECT 1 FROM bans WHERE user_id = ?", userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, persistence("select ban", err)
	}
	return true, nil
}

func (c *SQLite) ListBans(ctx context.Context) ([]e.Ban, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT user_id, user_name, banned_at FROM bans ORDER BY banned_at, user_id")
	if err != nil {
		return nil, persistence("list bans", err)
	}
	defer func() { _ = rows.Close() }()

	var bans []e.Ban
	for rows.Next() {
		var (
			ban      e.Ban
			bannedAt int64
		)
		if err := rows.Scan(&ban.UserID, &ban.UserName, &bannedAt); err != nil {
			return nil, persistence("scan ban", err)
		}
		ban.BannedAt = time.Unix(bannedAt, 0).UTC()
		bans = append(bans, ban)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence("list bans", err)
	}

	return bans, nil
}
