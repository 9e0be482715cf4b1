package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
	"nuclight.org/moderation-tg-bot/pkg/logger"
)

type UpdateHandler interface {
	HandleMessage(ctx context.Context, msg e.Message) error
	HandleCallback(ctx context.Context, cb e.Callback) error
}

type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Client pulls updates with long polling and fans them out to workers.
type Client struct {
	Log        logger.Logger
	Bot        *tgbotapi.BotAPI
	WorkersNum int
	Handler    UpdateHandler
	Answerer   CallbackAnswerer

	wg sync.WaitGroup
}

func (c *Client) Start(ctx context.Context) error {
	if c.WorkersNum <= 0 {
		return fmt.Errorf("workers number must be greater than 0")
	}

	c.Log.Info("bot api created", "username", c.Bot.Self.UserName)

	updatesConf := tgbotapi.NewUpdate(0)
	updatesConf.Timeout = 60
	updatesConf.AllowedUpdates = []string{"message", "callback_query"}

	updatesChan := c.Bot.GetUpdatesChan(updatesConf)

	for i := 0; i < c.WorkersNum; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.handleUpdatesFromChan(ctx, updatesChan)
		}()
	}

	go func() {
		<-ctx.Done()
		c.Bot.StopReceivingUpdates()
	}()

	return nil
}

func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) handleUpdatesFromChan(ctx context.Context, updatesChan tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updatesChan:
			if !ok {
				return
			}
			err := c.handleUpdate(ctx, update)
			if err != nil {
				c.Log.Error("handling update", "tg_update_id", update.UpdateID, "error", err)
				sentry.CaptureException(err)
			}
		}
	}
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update) (err error) {
	log := c.Log.With("tg_update_id", update.UpdateID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic", "error", r)
			sentry.CurrentHub().Recover(r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		return c.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return c.handleMessage(ctx, update.Message)
	default:
		log.Debug("skipping update")
		return nil
	}
}

func (c *Client) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.Chat == nil {
		c.Log.Warn("message chat is nil", "tg_message_id", message.MessageID)
		return nil
	}

	msg := takeMessage(message)

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	c.Log.Info(
		"new message",
		"tg_message_id", msg.Ref.MessageID,
		"tg_chat_id", msg.Ref.ChatID,
		"tg_chat_title", message.Chat.Title,
		"tg_user_id", userID,
		"has_media", msg.HasMedia(),
	)

	if err := c.Handler.HandleMessage(ctx, msg); err != nil {
		return fmt.Errorf("handling message: %w", err)
	}

	return nil
}

func (c *Client) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	cb := takeCallback(query)

	c.Log.Info("new callback", "tg_callback_id", cb.ID, "data", cb.Data)

	if c.Answerer != nil {
		if err := c.Answerer.AnswerCallback(ctx, cb.ID); err != nil {
			c.Log.Warn("answering callback", "tg_callback_id", cb.ID, "error", err)
		}
	}

	if err := c.Handler.HandleCallback(ctx, cb); err != nil {
		return fmt.Errorf("handling callback: %w", err)
	}

	return nil
}
