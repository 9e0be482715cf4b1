package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

// Gateway implements the messaging operations on top of the Bot API.
type Gateway struct {
	Bot *tgbotapi.BotAPI

	// HTTP downloads files, http.DefaultClient if nil
	HTTP *http.Client
}

func gatewayError(method string, err error) error {
	return &e.GatewayError{Method: method, Err: err}
}

func (g *Gateway) Forward(_ context.Context, toChatID int64, from e.MessageRef) (e.Message, error) {
	sent, err := g.Bot.Send(tgbotapi.NewForward(toChatID, from.ChatID, from.MessageID))
	if err != nil {
		return e.Message{}, gatewayError("forwardMessage", err)
	}
	return takeMessage(&sent), nil
}

func (g *Gateway) Copy(_ context.Context, toChatID int64, from e.MessageRef) (e.MessageRef, error) {
	id, err := g.Bot.CopyMessage(tgbotapi.NewCopyMessage(toChatID, from.ChatID, from.MessageID))
	if err != nil {
		return e.MessageRef{}, gatewayError("copyMessage", err)
	}
	return e.MessageRef{ChatID: toChatID, MessageID: id.MessageID}, nil
}

func (g *Gateway) SendText(_ context.Context, msg e.OutgoingText) (e.MessageRef, error) {
	conf := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	conf.ReplyToMessageID = msg.ReplyTo
	conf.DisableWebPagePreview = true
	if markup := inlineKeyboard(msg.Keyboard); markup != nil {
		conf.ReplyMarkup = markup
	}

	sent, err := g.Bot.Send(conf)
	if err != nil {
		return e.MessageRef{}, gatewayError("sendMessage", err)
	}
	return takeMessageRef(&sent), nil
}

func (g *Gateway) SendMedia(_ context.Context, msg e.OutgoingMedia) (e.Sent, error) {
	file := requestFile(msg.File)

	var (
		conf   tgbotapi.Chattable
		method string
	)
	switch msg.Kind {
	case e.MediaKindImage:
		c := tgbotapi.NewPhoto(msg.ChatID, file)
		c.Caption, c.ReplyToMessageID = msg.Caption, msg.ReplyTo
		conf, method = c, "sendPhoto"
	case e.MediaKindAnimation:
		c := tgbotapi.NewAnimation(msg.ChatID, file)
		c.Caption, c.ReplyToMessageID = msg.Caption, msg.ReplyTo
		conf, method = c, "sendAnimation"
	case e.MediaKindVideo:
		c := tgbotapi.NewVideo(msg.ChatID, file)
		c.Caption, c.ReplyToMessageID = msg.Caption, msg.ReplyTo
		conf, method = c, "sendVideo"
	default:
		c := tgbotapi.NewDocument(msg.ChatID, file)
		c.Caption, c.ReplyToMessageID = msg.Caption, msg.ReplyTo
		conf, method = c, "sendDocument"
	}

	sent, err := g.Bot.Send(conf)
	if err != nil {
		return e.Sent{}, gatewayError(method, err)
	}

	return e.Sent{Ref: takeMessageRef(&sent), FileHandle: takeFileHandle(sent)}, nil
}

func (g *Gateway) EditCaption(_ context.Context, ref e.MessageRef, caption string) error {
	_, err := g.Bot.Request(tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, caption))
	if err != nil {
		return gatewayError("editMessageCaption", err)
	}
	return nil
}

// Delete removes a message. A message that is already gone counts as deleted.
func (g *Gateway) Delete(_ context.Context, ref e.MessageRef) error {
	_, err := g.Bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	if err != nil && !isMessageGone(err) {
		return gatewayError("deleteMessage", err)
	}
	return nil
}

func isMessageGone(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "message to delete not found")
}

func (g *Gateway) Download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := g.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, gatewayError("getFile", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(g.Bot.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, gatewayError("download", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, gatewayError("download", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gatewayError("download", fmt.Errorf("reading file: %w", err))
	}

	return content, nil
}

// AnswerCallback acknowledges a button press so the client stops its spinner.
func (g *Gateway) AnswerCallback(_ context.Context, callbackID string) error {
	_, err := g.Bot.Request(tgbotapi.NewCallback(callbackID, ""))
	if err != nil {
		return gatewayError("answerCallbackQuery", err)
	}
	return nil
}
