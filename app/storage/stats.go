package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

func (c *SQLite) IncrementOffered(ctx context.Context, userID int64) error {
	return c.incrementStat(ctx, userID, "offered")
}

func (c *SQLite) IncrementAccepted(ctx context.Context, userID int64) error {
	return c.incrementStat(ctx, userID, "accepted")
}

func (c *SQLite) IncrementDeclined(ctx context.Context, userID int64) error {
	return c.incrementStat(ctx, userID, "declined")
}

// column is always one of the literals above
func (c *SQLite) incrementStat(ctx context.Context, userID int64, column string) error {
	_, err := c.db.ExecContext(
		ctx,
		fmt.Sprintf(
			`INSERT INTO user_stats (user_id, %[1]s) VALUES (?, 1)
				ON CONFLICT(user_id) DO UPDATE SET %[1]s = %[1]s + 1`,
			column,
		),
		userID,
	)
	if err != nil {
		return persistence("increment "+column, err)
	}
	return nil
}

// GetStats returns the counters of a user, zeroes for an unknown user.
func (c *SQLite) GetStats(ctx context.Context, userID int64) (e.UserStats, error) {
	stats := e.UserStats{UserID: userID}

	err := c.db.QueryRowContext(
		ctx,
		"SELECT offered, accepted, declined FROM user_stats WHERE user_id = ?",
		userID,
	).Scan(&stats.Offered, &stats.Accepted, &stats.Declined)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return e.UserStats{}, persistence("select stats", err)
	}

	return stats, nil
}
