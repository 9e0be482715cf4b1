package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

const submissionColumns = `origin_chat_id, origin_message_id, submitter_id, submitter_name,
	review_chat_id, review_message_id, review_secondary_message_id, created_at, decided_at`

// RecordSubmission stores a new ledger entry. Only the review side is unique,
// the same origin message may be recorded any number of times.
func (c *SQLite) RecordSubmission(ctx context.Context, sub e.PendingSubmission) error {
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.now()
	}

	var secondary any
	if sub.SecondaryMessageID != nil {
		secondary = *sub.SecondaryMessageID
	}

	_, err := c.db.ExecContext(
		ctx,
		`INSERT INTO pending_submissions (
			origin_chat_id, origin_message_id, submitter_id, submitter_name,
			review_chat_id, review_message_id, review_secondary_message_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Origin.ChatID, sub.Origin.MessageID, sub.SubmitterID, sub.SubmitterName,
		sub.Review.ChatID, sub.Review.MessageID, secondary, createdAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review message %d/%d: %w", sub.Review.ChatID, sub.Review.MessageID, e.ErrAlreadyExists)
		}
		return persistence("insert submission", err)
	}

	return nil
}

// FindSubmission looks an entry up by a review-chat message, matching either the
// review card or the secondary message. Decided entries are still returned.
func (c *SQLite) FindSubmission(ctx context.Context, review e.MessageRef) (e.PendingSubmission, error) {
	row := c.db.QueryRowContext(
		ctx,
		`SELECT `+submissionColumns+` FROM pending_submissions
		WHERE review_chat_id = ? AND (review_message_id = ? OR review_secondary_message_id = ?)
		ORDER BY id LIMIT 1`,
		review.ChatID, review.MessageID, review.MessageID,
	)

	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e.PendingSubmission{}, fmt.Errorf("submission for %d/%d: %w", review.ChatID, review.MessageID, e.ErrNotFound)
		}
		return e.PendingSubmission{}, persistence("select submission", err)
	}

	return sub, nil
}

// ClaimSubmission marks an entry decided. It fails with ErrNotFound when no entry
// matches and with ErrAlreadyDecided when another decision got there first; the
// entry is returned in the latter case too.
func (c *SQLite) ClaimSubmission(ctx context.Context, review e.MessageRef) (e.PendingSubmission, error) {
	var sub e.PendingSubmission

	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var id int64
		row := tx.QueryRowContext(
			ctx,
			`SELECT id, `+submissionColumns+` FROM pending_submissions
			WHERE review_chat_id = ? AND (review_message_id = ? OR review_secondary_message_id = ?)
			ORDER BY id LIMIT 1`,
			review.ChatID, review.MessageID, review.MessageID,
		)

		var err error
		sub, err = scanSubmission(row, &id)
		if err != nil {
			return err
		}

		if sub.IsDecided() {
			return e.ErrAlreadyDecided
		}

		now := c.now().UTC().Truncate(time.Second)
		res, err := tx.ExecContext(
			ctx,
			"UPDATE pending_submissions SET decided_at = ? WHERE id = ? AND decided_at IS NULL",
			now.Unix(), id,
		)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return e.ErrAlreadyDecided
		}

		sub.DecidedAt = &now
		return nil
	})

	switch {
	case err == nil:
		return sub, nil
	case errors.Is(err, sql.ErrNoRows):
		return e.PendingSubmission{}, fmt.Errorf("submission for %d/%d: %w", review.ChatID, review.MessageID, e.ErrNotFound)
	case errors.Is(err, e.ErrAlreadyDecided):
		return sub, err
	default:
		return e.PendingSubmission{}, persistence("claim submission", err)
	}
}

// PurgeSubmissions deletes entries created before the cutoff and reports how
// many were removed.
func (c *SQLite) PurgeSubmissions(ctx context.Context, before time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM pending_submissions WHERE created_at < ?", before.Unix())
	if err != nil {
		return 0, persistence("purge submissions", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence("purge submissions", err)
	}

	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner, prefix ...any) (e.PendingSubmission, error) {
	var (
		sub       e.PendingSubmission
		secondary sql.NullInt64
		createdAt int64
		decidedAt sql.NullInt64
	)

	dest := append(prefix,
		&sub.Origin.ChatID, &sub.Origin.MessageID, &sub.SubmitterID, &sub.SubmitterName,
		&sub.Review.ChatID, &sub.Review.MessageID, &secondary, &createdAt, &decidedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return e.PendingSubmission{}, err
	}

	if secondary.Valid {
		id := int(secondary.Int64)
		sub.SecondaryMessageID = &id
	}
	sub.CreatedAt = time.Unix(createdAt, 0).UTC()
	sub.DecidedAt = timeFromNullInt(decidedAt)

	return sub, nil
}
