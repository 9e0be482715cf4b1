package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

type PoolStore interface {
	BlobExists(ctx context.Context, name string, category e.Category) (bool, error)
	SaveBlob(ctx context.Context, blob e.MediaBlob) error
}

type PoolResult struct {
	Added   int
	Skipped int
}

// LoadPool imports every regular file in dir into category, named after the
// file. Names already stored in the category are left untouched.
func LoadPool(ctx context.Context, store PoolStore, dir string, category e.Category) (PoolResult, error) {
	var res PoolResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("reading pool dir: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if !entry.Type().IsRegular() {
			continue
		}

		name := entry.Name()
		exists, err := store.BlobExists(ctx, name, category)
		if err != nil {
			return res, fmt.Errorf("checking %s: %w", name, err)
		}
		if exists {
			res.Skipped++
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", name, err)
		}

		err = store.SaveBlob(ctx, e.MediaBlob{Name: name, Category: category, Data: data})
		if errors.Is(err, e.ErrAlreadyExists) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("saving %s: %w", name, err)
		}

		res.Added++
	}

	return res, nil
}
