package entities

import (
	"strconv"
	"strings"
)

// MessageRef identifies a message within a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

type User struct {
	ID        int64
	UserName  string
	FirstName string
	LastName  string
}

// Title renders the sender attribution used on review cards: "<@nick> First Last"
// with empty parts omitted. Falls back to the numeric id.
func (u User) Title() string {
	parts := make([]string, 0, 3)
	if u.UserName != "" {
		parts = append(parts, "<@"+u.UserName+">")
	}
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}

	if len(parts) == 0 {
		return strconv.FormatInt(u.ID, 10)
	}

	return strings.Join(parts, " ")
}

type Message struct {
	Ref             MessageRef
	From            *User
	Text            string
	Caption         string
	CaptionEntities int
	Attachment      *Attachment // nil if the message carries no file
	Animation       bool        // attachment was sent as an animation
	ReplyTo         *Message
}

// HasCaption mirrors the Bot API notion of a caption: either caption text or
// caption formatting entities are present.
func (m *Message) HasCaption() bool {
	return m.Caption != "" || m.CaptionEntities > 0
}

func (m *Message) HasMedia() bool {
	return m.Attachment != nil
}

// CommandText returns the text a command could be read from: the message text,
// or the caption for media messages.
func (m *Message) CommandText() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

func (m *Message) IsCommand() bool {
	return strings.HasPrefix(m.CommandText(), "/")
}

// Callback is an inline button press.
type Callback struct {
	ID      string
	Data    string
	From    *User
	Message *Message // the message the keyboard is attached to
}
