package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

func TestBlobLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	blob := e.MediaBlob{Name: "yes.gif", Category: e.CategoryAccept, Data: []byte("GIF89a")}
	require.NoError(t, db.SaveBlob(ctx, blob))

	err := db.SaveBlob(ctx, blob)
	assert.True(t, errors.Is(err, e.ErrAlreadyExists))

	// same name in the other category is a different blob
	require.NoError(t, db.SaveBlob(ctx, e.MediaBlob{Name: "yes.gif", Category: e.CategoryDecline, Data: []byte("x")}))

	got, err := db.GetBlob(ctx, "yes.gif", e.CategoryAccept)
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	exists, err := db.BlobExists(ctx, "yes.gif", e.CategoryDecline)
	require.NoError(t, err)
	assert.True(t, exists)

	list, err := db.ListBlobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []e.MediaInfo{
		{Name: "yes.gif", Category: e.CategoryAccept, Size: 6},
		{Name: "yes.gif", Category: e.CategoryDecline, Size: 1},
	}, list)

	require.NoError(t, db.DeleteBlob(ctx, "yes.gif", e.CategoryAccept))
	err = db.DeleteBlob(ctx, "yes.gif", e.CategoryAccept)
	assert.True(t, errors.Is(err, e.ErrNotFound))

	_, err = db.GetBlob(ctx, "yes.gif", e.CategoryAccept)
	assert.True(t, errors.Is(err, e.ErrNotFound))
}

func TestRandomBlobRespectsCategory(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.RandomBlob(ctx, e.CategoryAccept)
	assert.True(t, errors.Is(err, e.ErrEmptyCategory))

	for _, name := range []string{"a.gif", "b.gif", "c.gif"} {
		require.NoError(t, db.SaveBlob(ctx, e.MediaBlob{Name: name, Category: e.CategoryAccept, Data: []byte(name)}))
	}
	require.NoError(t, db.SaveBlob(ctx, e.MediaBlob{Name: "no.gif", Category: e.CategoryDecline, Data: []byte("no")}))

	for i := 0; i < 20; i++ {
		blob, err := db.RandomBlob(ctx, e.CategoryAccept)
		require.NoError(t, err)
		assert.Equal(t, e.CategoryAccept, blob.Category)
		assert.NotEqual(t, "no.gif", blob.Name)
	}

	blob, err := db.RandomBlob(ctx, e.CategoryDecline)
	require.NoError(t, err)
	assert.Equal(t, "no.gif", blob.Name)
}

func TestHandles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.GetHandle(ctx, "accept/a.gif")
	assert.True(t, errors.Is(err, e.ErrNotFound))

	require.NoError(t, db.PutHandle(ctx, "accept/a.gif", "file-1"))
	require.NoError(t, db.PutHandle(ctx, "accept/a.gif", "file-2"))

	h, err := db.GetHandle(ctx, "accept/a.gif")
	require.NoError(t, err)
	assert.Equal(t, "file-2", h)

	require.NoError(t, db.DeleteHandle(ctx, "accept/a.gif"))
	_, err = db.GetHandle(ctx, "accept/a.gif")
	assert.True(t, errors.Is(err, e.ErrNotFound))
}
