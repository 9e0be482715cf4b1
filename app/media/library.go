package media

import (
	"context"
	"errors"
	"fmt"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
	"nuclight.org/moderation-tg-bot/pkg/logger"
	"nuclight.org/moderation-tg-bot/pkg/mutex"
)

type BlobStore interface {
	RandomBlob(ctx context.Context, category e.Category) (e.MediaBlob, error)
	DeleteBlob(ctx context.Context, name string, category e.Category) error
}

type HandleCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, handle string) error
	Purge(ctx context.Context, key string) error
}

type Sender interface {
	SendMedia(ctx context.Context, msg e.OutgoingMedia) (e.Sent, error)
}

// Library draws response clips and delivers them, uploading the bytes only the
// first time a clip is sent. Later deliveries reuse the handle the gateway
// issued for that upload.
type Library struct {
	Log     logger.Logger
	Blobs   BlobStore
	Handles HandleCache
	Sender  Sender

	uploads mutex.KeyedMutex
}

// Draw picks a random clip of the category, ErrEmptyCategory if there is none.
func (l *Library) Draw(ctx context.Context, category e.Category) (e.MediaBlob, error) {
	blob, err := l.Blobs.RandomBlob(ctx, category)
	if err != nil {
		return e.MediaBlob{}, fmt.Errorf("drawing %s clip: %w", category, err)
	}
	return blob, nil
}

// Deliver sends the clip to chatID as a reply to replyTo (0 for no reply).
func (l *Library) Deliver(ctx context.Context, chatID int64, replyTo int, blob e.MediaBlob) (e.Sent, error) {
	key := blob.Key()
	log := l.Log.With("media_key", key, "tg_chat_id", chatID)

	if sent, ok, err := l.deliverCached(ctx, chatID, replyTo, blob); ok {
		return sent, err
	}

	// one upload per key at a time, the rest wait and reuse its handle
	l.uploads.Lock(key)
	defer l.uploads.Unlock(key)

	if sent, ok, err := l.deliverCached(ctx, chatID, replyTo, blob); ok {
		return sent, err
	}

	sent, err := l.Sender.SendMedia(ctx, e.OutgoingMedia{
		ChatID:  chatID,
		Kind:    e.MediaKindAnimation,
		File:    e.InputFile{Name: blob.Name, Bytes: blob.Data},
		ReplyTo: replyTo,
	})
	if err != nil {
		return e.Sent{}, fmt.Errorf("uploading %s: %w", key, err)
	}
	deliveriesCounter.WithLabelValues("upload").Inc()

	if sent.FileHandle == "" {
		log.Warn("gateway issued no handle for upload")
		return sent, nil
	}

	if err := l.Handles.Put(ctx, key, sent.FileHandle); err != nil {
		log.Error("caching file handle", "error", err)
	}

	return sent, nil
}

// deliverCached reports ok=false when there is no usable cached handle.
func (l *Library) deliverCached(ctx context.Context, chatID int64, replyTo int, blob e.MediaBlob) (e.Sent, bool, error) {
	key := blob.Key()

	handle, ok, err := l.Handles.Get(ctx, key)
	if err != nil {
		l.Log.Error("reading cached file handle", "media_key", key, "error", err)
		return e.Sent{}, false, nil
	}
	if !ok {
		return e.Sent{}, false, nil
	}

	sent, err := l.Sender.SendMedia(ctx, e.OutgoingMedia{
		ChatID:  chatID,
		Kind:    e.MediaKindAnimation,
		File:    e.InputFile{Name: blob.Name, Handle: handle},
		ReplyTo: replyTo,
	})
	if err != nil {
		return e.Sent{}, true, fmt.Errorf("sending cached %s: %w", key, err)
	}
	deliveriesCounter.WithLabelValues("cache").Inc()

	return sent, true, nil
}

// Remove deletes a stored clip and forgets its cached handle.
func (l *Library) Remove(ctx context.Context, name string, category e.Category) error {
	if err := l.Blobs.DeleteBlob(ctx, name, category); err != nil {
		return err
	}

	key := e.MediaBlob{Name: name, Category: category}.Key()
	if err := l.Handles.Purge(ctx, key); err != nil && !errors.Is(err, e.ErrNotFound) {
		l.Log.Error("purging cached file handle", "media_key", key, "error", err)
	}

	return nil
}
