package moderation

import (
	"context"
	"errors"
	"sync"

	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

// fakeGateway records every call and hands out increasing message ids.
type fakeGateway struct {
	mu     sync.Mutex
	nextID int

	forwardAttachment *e.Attachment
	forwardCaption    string
	downloadErr       error
	sendMediaErr      error
	deleteErr         error

	forwards  []e.MessageRef
	copies    []e.MessageRef
	texts     []e.OutgoingText
	media     []e.OutgoingMedia
	captions  []e.MessageRef
	deletes   []e.MessageRef
	downloads []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{nextID: 40}
}

func (g *fakeGateway) id() int {
	g.nextID++
	return g.nextID
}

func (g *fakeGateway) Forward(_ context.Context, to int64, from e.MessageRef) (e.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forwards = append(g.forwards, from)
	return e.Message{
		Ref:        e.MessageRef{ChatID: to, MessageID: g.id()},
		Attachment: g.forwardAttachment,
		Caption:    g.forwardCaption,
	}, nil
}

func (g *fakeGateway) Copy(_ context.Context, to int64, from e.MessageRef) (e.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.copies = append(g.copies, from)
	return e.MessageRef{ChatID: to, MessageID: g.id()}, nil
}

func (g *fakeGateway) SendText(_ context.Context, msg e.OutgoingText) (e.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, msg)
	return e.MessageRef{ChatID: msg.ChatID, MessageID: g.id()}, nil
}

func (g *fakeGateway) SendMedia(_ context.Context, msg e.OutgoingMedia) (e.Sent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendMediaErr != nil {
		return e.Sent{}, g.sendMediaErr
	}
	g.media = append(g.media, msg)
	sent := e.Sent{Ref: e.MessageRef{ChatID: msg.ChatID, MessageID: g.id()}}
	if !msg.File.IsHandle() {
		sent.FileHandle = "handle-" + msg.File.Name
	}
	return sent, nil
}

func (g *fakeGateway) EditCaption(_ context.Context, ref e.MessageRef, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captions = append(g.captions, ref)
	return nil
}

func (g *fakeGateway) Delete(_ context.Context, ref e.MessageRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes = append(g.deletes, ref)
	return g.deleteErr
}

func (g *fakeGateway) Download(_ context.Context, fileID string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.downloads = append(g.downloads, fileID)
	if g.downloadErr != nil {
		return nil, g.downloadErr
	}
	return []byte("bytes of " + fileID), nil
}

func (g *fakeGateway) mediaTo(chatID int64) []e.OutgoingMedia {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []e.OutgoingMedia
	for _, m := range g.media {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (g *fakeGateway) textsTo(chatID int64) []e.OutgoingText {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []e.OutgoingText
	for _, m := range g.texts {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

var errBoom = errors.New("boom")
