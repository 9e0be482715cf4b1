package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()

	db, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.sqlite")

	db, err := NewSQLite(ctx, path)
	require.NoError(t, err)

	v, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	require.NoError(t, db.Close())

	db, err = NewSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	v, err = db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestRecordThenFindSubmission(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	secondary := 41
	sub := e.PendingSubmission{
		Origin:             e.MessageRef{ChatID: 100, MessageID: 5},
		SubmitterID:        7,
		SubmitterName:      "<@nick> John",
		Review:             e.MessageRef{ChatID: 900, MessageID: 42},
		SecondaryMessageID: &secondary,
	}
	require.NoError(t, db.RecordSubmission(ctx, sub))

	got, err := db.FindSubmission(ctx, e.MessageRef{ChatID: 900, MessageID: 42})
	require.NoError(t, err)
	assert.Equal(t, sub.Origin, got.Origin)
	assert.Equal(t, int64(7), got.SubmitterID)
	assert.Equal(t, "<@nick> John", got.SubmitterName)
	require.NotNil(t, got.SecondaryMessageID)
	assert.Equal(t, 41, *got.SecondaryMessageID)

	bySecondary, err := db.FindSubmission(ctx, e.MessageRef{ChatID: 900, MessageID: 41})
	require.NoError(t, err)
	assert.Equal(t, got, bySecondary)

	// repeated lookups keep succeeding
	_, err = db.FindSubmission(ctx, e.MessageRef{ChatID: 900, MessageID: 42})
	assert.NoError(t, err)
}

func TestFindSubmissionNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.FindSubmission(context.Background(), e.MessageRef{ChatID: 900, MessageID: 1})
	assert.True(t, errors.Is(err, e.ErrNotFound))
}

func TestRecordSubmissionUniqueOnReviewSide(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	origin := e.MessageRef{ChatID: 100, MessageID: 5}
	require.NoError(t, db.RecordSubmission(ctx, e.PendingSubmission{Origin: origin, Review: e.MessageRef{ChatID: 900, MessageID: 1}}))
	require.NoError(t, db.RecordSubmission(ctx, e.PendingSubmission{Origin: origin, Review: e.MessageRef{ChatID: 900, MessageID: 2}}))

	err := db.RecordSubmission(ctx, e.PendingSubmission{
		Origin: e.MessageRef{ChatID: 101, MessageID: 9},
		Review: e.MessageRef{ChatID: 900, MessageID: 2},
	})
	assert.True(t, errors.Is(err, e.ErrAlreadyExists))
}

func TestClaimSubmissionOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	review := e.MessageRef{ChatID: 900, MessageID: 42}
	require.NoError(t, db.RecordSubmission(ctx, e.PendingSubmission{
		Origin: e.MessageRef{ChatID: 100, MessageID: 5},
		Review: review,
	}))

	sub, err := db.ClaimSubmission(ctx, review)
	require.NoError(t, err)
	assert.True(t, sub.IsDecided())

	again, err := db.ClaimSubmission(ctx, review)
	assert.True(t, errors.Is(err, e.ErrAlreadyDecided))
	assert.Equal(t, sub.Origin, again.Origin)

	found, err := db.FindSubmission(ctx, review)
	require.NoError(t, err)
	assert.True(t, found.IsDecided())

	_, err = db.ClaimSubmission(ctx, e.MessageRef{ChatID: 900, MessageID: 43})
	assert.True(t, errors.Is(err, e.ErrNotFound))
}

func TestClaimSubmissionConcurrent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	review := e.MessageRef{ChatID: 900, MessageID: 42}
	require.NoError(t, db.RecordSubmission(ctx, e.PendingSubmission{
		Origin: e.MessageRef{ChatID: 100, MessageID: 5},
		Review: review,
	}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.ClaimSubmission(ctx, review); err == nil {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed)
}

func TestPurgeSubmissions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	now := time.Now()
	require.NoError(t, db.RecordSubmission(ctx, e.PendingSubmission{
		Review:    e.MessageRef{ChatID: 900, MessageID: 1},
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, db.RecordSubmission(ctx, e.PendingSubmission{
		Review:    e.MessageRef{ChatID: 900, MessageID: 2},
		CreatedAt: now,
	}))

	n, err := db.PurgeSubmissions(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.FindSubmission(ctx, e.MessageRef{ChatID: 900, MessageID: 1})
	assert.True(t, errors.Is(err, e.ErrNotFound))
	_, err = db.FindSubmission(ctx, e.MessageRef{ChatID: 900, MessageID: 2})
	assert.NoError(t, err)
}
