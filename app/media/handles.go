package media

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

type HandleStore interface {
	GetHandle(ctx context.Context, key string) (string, error)
	PutHandle(ctx context.Context, key, handle string) error
	DeleteHandle(ctx context.Context, key string) error
}

// Handles is the remote file handle cache: an expirable in-memory LRU in front
// of the durable store. At most one handle is kept per media key.
type Handles struct {
	store HandleStore
	mem   *expirable.LRU[string, string]
}

func NewHandles(store HandleStore, size int, ttl time.Duration) *Handles {
	return &Handles{
		store: store,
		mem:   expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Get returns the cached handle for key. A miss is not an error.
func (h *Handles) Get(ctx context.Context, key string) (string, bool, error) {
	if handle, ok := h.mem.Get(key); ok {
		return handle, true, nil
	}

	handle, err := h.store.GetHandle(ctx, key)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	h.mem.Add(key, handle)
	return handle, true, nil
}

func (h *Handles) Put(ctx context.Context, key, handle string) error {
	if err := h.store.PutHandle(ctx, key, handle); err != nil {
		return err
	}
	h.mem.Add(key, handle)
	return nil
}

func (h *Handles) Purge(ctx context.Context, key string) error {
	h.mem.Remove(key)
	return h.store.DeleteHandle(ctx, key)
}
