package telegram

import (
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

func TestTakeMessagePhotoWithCaption(t *testing.T) {
	msg := takeMessage(&tgbotapi.Message{
		MessageID: 5,
		Chat:      &tgbotapi.Chat{ID: 100},
		From:      &tgbotapi.User{ID: 7, UserName: "nick", FirstName: "John"},
		Caption:   "hello",
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "large", Width: 1280},
		},
	})

	assert.Equal(t, e.MessageRef{ChatID: 100, MessageID: 5}, msg.Ref)
	require.NotNil(t, msg.From)
	assert.Equal(t, int64(7), msg.From.ID)
	assert.True(t, msg.HasCaption())
	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "large", msg.Attachment.FileID)
	assert.Equal(t, e.MediaKindImage, msg.Attachment.Kind())
	assert.False(t, msg.Animation)
}

func TestTakeMessageAnimationWinsOverDocument(t *testing.T) {
	msg := takeMessage(&tgbotapi.Message{
		MessageID: 6,
		Chat:      &tgbotapi.Chat{ID: 900},
		Caption:   "/add A",
		Animation: &tgbotapi.Animation{FileID: "anim", FileName: "yay.gif", MimeType: "video/mp4"},
		Document:  &tgbotapi.Document{FileID: "doc", FileName: "yay.gif", MimeType: "video/mp4"},
	})

	require.NotNil(t, msg.Attachment)
	assert.Equal(t, "anim", msg.Attachment.FileID)
	assert.Equal(t, "yay.gif", msg.Attachment.FileName)
	assert.True(t, msg.Animation)
	assert.True(t, msg.IsCommand())
}

func TestTakeMessageCaptionEntitiesOnly(t *testing.T) {
	msg := takeMessage(&tgbotapi.Message{
		Chat:            &tgbotapi.Chat{ID: 1},
		Video:           &tgbotapi.Video{FileID: "v", MimeType: "video/mp4"},
		CaptionEntities: []tgbotapi.MessageEntity{{Type: "bold"}},
	})

	assert.True(t, msg.HasCaption())
	assert.Equal(t, e.MediaKindVideo, msg.Attachment.Kind())
}

func TestTakeMessageReplyChain(t *testing.T) {
	msg := takeMessage(&tgbotapi.Message{
		MessageID: 42,
		Chat:      &tgbotapi.Chat{ID: 900},
		Text:      "From: <@nick>\nWe going to shitpost it?",
		ReplyToMessage: &tgbotapi.Message{
			MessageID: 41,
			Chat:      &tgbotapi.Chat{ID: 900},
			Text:      "forwarded",
		},
	})

	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, e.MessageRef{ChatID: 900, MessageID: 41}, msg.ReplyTo.Ref)
	assert.Nil(t, msg.Attachment)
}

func TestTakeCallback(t *testing.T) {
	cb := takeCallback(&tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    "accept-without-caption",
		From:    &tgbotapi.User{ID: 3},
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: 900}},
	})

	assert.Equal(t, "cb-1", cb.ID)
	require.NotNil(t, cb.Message)
	assert.Equal(t, 42, cb.Message.Ref.MessageID)

	d, ok := e.ParseDecision(cb.Data)
	require.True(t, ok)
	assert.Equal(t, e.DecisionAcceptNoCaption, d)
}

func TestInlineKeyboard(t *testing.T) {
	assert.Nil(t, inlineKeyboard(nil))

	markup := inlineKeyboard(e.Keyboard{
		{{Text: "Accept", Data: "accept"}, {Text: "Without text", Data: "accept-without-caption"}},
		{{Text: "Decline", Data: "decline"}},
	})

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	require.NotNil(t, markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "decline", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestRequestFile(t *testing.T) {
	assert.Equal(t, tgbotapi.FileID("AgAD"), requestFile(e.InputFile{Handle: "AgAD"}))
	assert.Equal(t,
		tgbotapi.FileBytes{Name: "image.gif", Bytes: []byte("gif")},
		requestFile(e.InputFile{Name: "image.gif", Bytes: []byte("gif")}),
	)
}

func TestTakeFileHandle(t *testing.T) {
	assert.Equal(t, "anim", takeFileHandle(tgbotapi.Message{Animation: &tgbotapi.Animation{FileID: "anim"}}))
	assert.Equal(t, "", takeFileHandle(tgbotapi.Message{Text: "plain"}))
}

func TestIsMessageGone(t *testing.T) {
	assert.True(t, isMessageGone(&tgbotapi.Error{Code: 400, Message: "Bad Request: message to delete not found"}))
	assert.True(t, isMessageGone(fmt.Errorf("wrapped: %w", &tgbotapi.Error{Message: "Bad Request: message to delete not found"})))
	assert.False(t, isMessageGone(&tgbotapi.Error{Code: 400, Message: "Bad Request: message can't be deleted"}))
	assert.False(t, isMessageGone(fmt.Errorf("network down")))
}
