package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
)

const photoMimeType = "image/jpeg"

func takeMessageRef(message *tgbotapi.Message) e.MessageRef {
	ref := e.MessageRef{MessageID: message.MessageID}
	if message.Chat != nil {
		ref.ChatID = message.Chat.ID
	}
	return ref
}

func takeUser(user *tgbotapi.User) *e.User {
	if user == nil {
		return nil
	}
	return &e.User{
		ID:        user.ID,
		UserName:  user.UserName,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// takeAttachment picks the file a message carries. Animations are checked
// before documents since the Bot API fills both for a GIF.
func takeAttachment(message *tgbotapi.Message) (*e.Attachment, bool) {
	switch {
	case message.Animation != nil:
		a := message.Animation
		return &e.Attachment{FileID: a.FileID, FileName: a.FileName, MimeType: a.MimeType}, true
	case len(message.Photo) > 0:
		// sizes are ascending, the last one is the original
		p := message.Photo[len(message.Photo)-1]
		return &e.Attachment{FileID: p.FileID, MimeType: photoMimeType}, false
	case message.Video != nil:
		v := message.Video
		return &e.Attachment{FileID: v.FileID, FileName: v.FileName, MimeType: v.MimeType}, false
	case message.Document != nil:
		d := message.Document
		return &e.Attachment{FileID: d.FileID, FileName: d.FileName, MimeType: d.MimeType}, false
	case message.Audio != nil:
		a := message.Audio
		return &e.Attachment{FileID: a.FileID, FileName: a.FileName, MimeType: a.MimeType}, false
	case message.Voice != nil:
		return &e.Attachment{FileID: message.Voice.FileID, MimeType: message.Voice.MimeType}, false
	case message.VideoNote != nil:
		return &e.Attachment{FileID: message.VideoNote.FileID}, false
	case message.Sticker != nil:
		return &e.Attachment{FileID: message.Sticker.FileID}, false
	default:
		return nil, false
	}
}

func takeMessage(message *tgbotapi.Message) e.Message {
	msg := e.Message{
		Ref:             takeMessageRef(message),
		From:            takeUser(message.From),
		Text:            message.Text,
		Caption:         message.Caption,
		CaptionEntities: len(message.CaptionEntities),
	}

	msg.Attachment, msg.Animation = takeAttachment(message)

	if message.ReplyToMessage != nil {
		reply := takeMessage(message.ReplyToMessage)
		msg.ReplyTo = &reply
	}

	return msg
}

func takeCallback(query *tgbotapi.CallbackQuery) e.Callback {
	cb := e.Callback{
		ID:   query.ID,
		Data: query.Data,
		From: takeUser(query.From),
	}
	if query.Message != nil {
		card := takeMessage(query.Message)
		cb.Message = &card
	}
	return cb
}

func inlineKeyboard(kb e.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func requestFile(f e.InputFile) tgbotapi.RequestFileData {
	if f.IsHandle() {
		return tgbotapi.FileID(f.Handle)
	}
	return tgbotapi.FileBytes{Name: f.Name, Bytes: f.Bytes}
}

// takeFileHandle returns the reusable id of the file a sent message carries.
func takeFileHandle(message tgbotapi.Message) string {
	attachment, _ := takeAttachment(&message)
	if attachment == nil {
		return ""
	}
	return attachment.FileID
}
