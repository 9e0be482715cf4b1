package admin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nuclight.org/moderation-tg-bot/app/config"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
	"nuclight.org/moderation-tg-bot/pkg/logger"
)

type Gateway interface {
	SendText(ctx context.Context, msg e.OutgoingText) (e.MessageRef, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type BlobStore interface {
	ListBlobs(ctx context.Context) ([]e.MediaInfo, error)
	GetBlob(ctx context.Context, name string, category e.Category) (e.MediaBlob, error)
	BlobExists(ctx context.Context, name string, category e.Category) (bool, error)
	SaveBlob(ctx context.Context, blob e.MediaBlob) error
}

type Library interface {
	Deliver(ctx context.Context, chatID int64, replyTo int, blob e.MediaBlob) (e.Sent, error)
	Remove(ctx context.Context, name string, category e.Category) error
}

type Ledger interface {
	FindSubmission(ctx context.Context, review e.MessageRef) (e.PendingSubmission, error)
}

type StatsStore interface {
	GetStats(ctx context.Context, userID int64) (e.UserStats, error)
}

type BanStore interface {
	Ban(ctx context.Context, ban e.Ban) error
	Unban(ctx context.Context, userID int64) error
	ListBans(ctx context.Context) ([]e.Ban, error)
}

// Router executes text commands posted in the review chat.
type Router struct {
	Log      logger.Logger
	Chats    config.Chats
	Gateway  Gateway
	Blobs    BlobStore
	Library  Library
	Ledger   Ledger
	Stats    StatsStore
	Bans     BanStore
	Revision string

	// MsgPrefix is prepended to every /msg text
	MsgPrefix string
}

var (
	getRegex   = regexp.MustCompile(`/get (A|D) (.+)`)
	addRegex   = regexp.MustCompile(`/add (A|D)`)
	rmRegex    = regexp.MustCompile(`/rm (A|D) (.+)`)
	msgRegex   = regexp.MustCompile(`/msg (.+)`)
	unbanRegex = regexp.MustCompile(`/unban (-?\d+)`)
)

const helpText = "Bot support next commands:\n" +
	"- /version - get current version.\n" +
	"- /list - get all pics from database with mark of accept/decline.\n" +
	"- /get {A/D} <file_name (from /list)> - get pic.\n" +
	"- /add {A/D} - add pic (attach animation to the command).\n" +
	"- /rm {A/D} <file_name (from /list)> - remove pic.\n" +
	"- /msg <text> - reply to a post to message its author.\n" +
	"- /stats - reply to a post to see stats of its author.\n" +
	"- /ban - reply to a post to ban its author.\n" +
	"- /unban <user_id> - lift a ban.\n" +
	"- /banlist - list banned users."

const (
	invalidParamsText = "Invalid parameters. See /help"
	needReplyText     = "Reply to a post with this command. See /help"
	postNotFoundText  = "Post not found."
	defaultAddName    = "file.gif"
)

type handlerFunc func(ctx context.Context, msg e.Message, text string) error

type command struct {
	prefix string
	handle handlerFunc
}

// longer prefixes sharing a stem go first
func (r *Router) commands() []command {
	return []command{
		{"/version", r.version},
		{"/help", r.help},
		{"/list", r.list},
		{"/get", r.get},
		{"/add", r.add},
		{"/rm", r.remove},
		{"/msg", r.message},
		{"/stats", r.stats},
		{"/banlist", r.banList},
		{"/ban", r.ban},
		{"/unban", r.unban},
	}
}

// HandleCommand dispatches a command message. Commands from any chat other
// than the review chat are ignored.
func (r *Router) HandleCommand(ctx context.Context, msg e.Message) error {
	if msg.Ref.ChatID != r.Chats.ReviewChatID {
		return nil
	}

	text := msg.CommandText()
	for _, cmd := range r.commands() {
		if !strings.HasPrefix(text, cmd.prefix) {
			continue
		}

		commandsCounter.WithLabelValues(cmd.prefix).Inc()
		r.Log.Info("admin command", "command", cmd.prefix, "tg_message_id", msg.Ref.MessageID)

		if err := cmd.handle(ctx, msg, text); err != nil {
			return fmt.Errorf("command %s: %w", cmd.prefix, err)
		}
		return nil
	}

	r.Log.Debug("unknown admin command", "text", text)
	return nil
}

func (r *Router) reply(ctx context.Context, msg e.Message, text string) error {
	_, err := r.Gateway.SendText(ctx, e.OutgoingText{
		ChatID:  msg.Ref.ChatID,
		Text:    text,
		ReplyTo: msg.Ref.MessageID,
	})
	if err != nil {
		return fmt.Errorf("replying: %w", err)
	}
	return nil
}

// rejected replies with the hint and logs why the command was refused.
func (r *Router) rejected(ctx context.Context, msg e.Message, hint string, reason error) error {
	r.Log.Warn("admin command rejected", "tg_message_id", msg.Ref.MessageID, "reason", reason)
	return r.reply(ctx, msg, hint)
}

func (r *Router) version(ctx context.Context, msg e.Message, _ string) error {
	return r.reply(ctx, msg, r.Revision)
}

func (r *Router) help(ctx context.Context, msg e.Message, _ string) error {
	return r.reply(ctx, msg, helpText)
}

func (r *Router) list(ctx context.Context, msg e.Message, _ string) error {
	blobs, err := r.Blobs.ListBlobs(ctx)
	if err != nil {
		r.Log.Error("listing pics", "error", err)
		return r.reply(ctx, msg, "An error occurred when requesting Pics list. Smoke logs.")
	}

	if len(blobs) == 0 {
		return r.reply(ctx, msg, "Pic list is empty")
	}

	var sb strings.Builder
	sb.WriteString("Pic list:")
	for _, b := range blobs {
		sb.WriteString("\n  - ")
		sb.WriteString(b.Category.Mark())
		sb.WriteString(" | ")
		sb.WriteString(b.Name)
	}

	return r.reply(ctx, msg, sb.String())
}

// parseMarkAndName applies a "(A|D) (.+)" grammar.
func parseMarkAndName(re *regexp.Regexp, text string) (e.Category, string, error) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q does not match %s", e.ErrValidation, text, re)
	}

	category, err := e.ParseCategoryMark(m[1])
	if err != nil {
		return "", "", err
	}

	name := ""
	if len(m) > 2 {
		name = m[2]
	}

	return category, name, nil
}

func (r *Router) get(ctx context.Context, msg e.Message, text string) error {
	category, name, err := parseMarkAndName(getRegex, text)
	if err != nil {
		return r.rejected(ctx, msg, invalidParamsText, err)
	}

	blob, err := r.Blobs.GetBlob(ctx, name, category)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return r.rejected(ctx, msg, "Pic with this name and mark not found. See /list", err)
		}
		return err
	}

	if _, err := r.Library.Deliver(ctx, msg.Ref.ChatID, msg.Ref.MessageID, blob); err != nil {
		return fmt.Errorf("delivering %s: %w", blob.Key(), err)
	}

	return nil
}

func (r *Router) add(ctx context.Context, msg e.Message, text string) error {
	category, _, err := parseMarkAndName(addRegex, text)
	if err != nil {
		return r.rejected(ctx, msg, invalidParamsText, err)
	}

	if msg.Attachment == nil || !msg.Animation {
		return r.rejected(ctx, msg, "Attach animation to command. See /help",
			fmt.Errorf("%w: no animation attached", e.ErrValidation))
	}

	name := msg.Attachment.FileName
	if name == "" {
		name = defaultAddName
	}

	exists, err := r.Blobs.BlobExists(ctx, name, category)
	if err != nil {
		return err
	}
	if exists {
		return r.reply(ctx, msg, "Pic with this name and mark already exists.")
	}

	data, err := r.Gateway.Download(ctx, msg.Attachment.FileID)
	if err != nil {
		r.Log.Error("downloading animation", "error", err)
		return r.reply(ctx, msg, "Download error.")
	}

	err = r.Blobs.SaveBlob(ctx, e.MediaBlob{Name: name, Category: category, Data: data})
	switch {
	case err == nil:
		return r.reply(ctx, msg, "Add successful.")
	case errors.Is(err, e.ErrAlreadyExists):
		return r.reply(ctx, msg, "Pic with this name and mark already exists.")
	default:
		r.Log.Error("saving pic", "error", err)
		return r.reply(ctx, msg, "Add error. Smoke logs.")
	}
}

func (r *Router) remove(ctx context.Context, msg e.Message, text string) error {
	category, name, err := parseMarkAndName(rmRegex, text)
	if err != nil {
		return r.rejected(ctx, msg, invalidParamsText, err)
	}

	err = r.Library.Remove(ctx, name, category)
	switch {
	case err == nil:
		return r.reply(ctx, msg, "Delete successful.")
	case errors.Is(err, e.ErrNotFound):
		return r.rejected(ctx, msg, "Image with this filename and mark does not exist.", err)
	default:
		r.Log.Error("deleting pic", "error", err)
		return r.reply(ctx, msg, "Delete error. Smoke logs.")
	}
}

// submissionOf resolves the submission the command message replies to. ok is
// false when a hint has already been sent back.
func (r *Router) submissionOf(ctx context.Context, msg e.Message) (e.PendingSubmission, bool, error) {
	if msg.ReplyTo == nil {
		return e.PendingSubmission{}, false, r.rejected(ctx, msg, needReplyText,
			fmt.Errorf("%w: command is not a reply", e.ErrValidation))
	}

	sub, err := r.Ledger.FindSubmission(ctx, msg.ReplyTo.Ref)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return e.PendingSubmission{}, false, r.rejected(ctx, msg, postNotFoundText, err)
		}
		return e.PendingSubmission{}, false, err
	}

	return sub, true, nil
}

func (r *Router) message(ctx context.Context, msg e.Message, text string) error {
	m := msgRegex.FindStringSubmatch(text)
	if m == nil {
		return r.rejected(ctx, msg, invalidParamsText, fmt.Errorf("%w: empty message", e.ErrValidation))
	}

	sub, ok, err := r.submissionOf(ctx, msg)
	if !ok {
		return err
	}

	_, err = r.Gateway.SendText(ctx, e.OutgoingText{
		ChatID:  sub.Origin.ChatID,
		Text:    r.MsgPrefix + m[1],
		ReplyTo: sub.Origin.MessageID,
	})
	if err != nil {
		r.Log.Error("messaging submitter", "tg_chat_id", sub.Origin.ChatID, "error", err)
		return r.reply(ctx, msg, "Send error. Smoke logs.")
	}

	return r.reply(ctx, msg, "Message sent.")
}

func (r *Router) stats(ctx context.Context, msg e.Message, _ string) error {
	sub, ok, err := r.submissionOf(ctx, msg)
	if !ok {
		return err
	}

	stats, err := r.Stats.GetStats(ctx, sub.SubmitterID)
	if err != nil {
		return err
	}

	return r.reply(ctx, msg, fmt.Sprintf(
		"Offered: %d\nAccepted: %d\nDeclined: %d",
		stats.Offered, stats.Accepted, stats.Declined,
	))
}

func (r *Router) ban(ctx context.Context, msg e.Message, _ string) error {
	sub, ok, err := r.submissionOf(ctx, msg)
	if !ok {
		return err
	}

	if sub.SubmitterID == 0 {
		return r.reply(ctx, msg, "Submitter is unknown.")
	}

	name := sub.SubmitterName
	if name == "" {
		name = strconv.FormatInt(sub.SubmitterID, 10)
	}

	err = r.Bans.Ban(ctx, e.Ban{UserID: sub.SubmitterID, UserName: name})
	if err != nil {
		return err
	}

	return r.reply(ctx, msg, fmt.Sprintf("User %d banned.", sub.SubmitterID))
}

func (r *Router) unban(ctx context.Context, msg e.Message, text string) error {
	m := unbanRegex.FindStringSubmatch(text)
	if m == nil {
		return r.rejected(ctx, msg, invalidParamsText, fmt.Errorf("%w: no user id", e.ErrValidation))
	}

	userID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return r.rejected(ctx, msg, invalidParamsText, fmt.Errorf("%w: %v", e.ErrValidation, err))
	}

	err = r.Bans.Unban(ctx, userID)
	switch {
	case err == nil:
		return r.reply(ctx, msg, fmt.Sprintf("User %d unbanned.", userID))
	case errors.Is(err, e.ErrNotFound):
		return r.reply(ctx, msg, fmt.Sprintf("User %d is not banned.", userID))
	default:
		return err
	}
}

func (r *Router) banList(ctx context.Context, msg e.Message, _ string) error {
	bans, err := r.Bans.ListBans(ctx)
	if err != nil {
		return err
	}

	if len(bans) == 0 {
		return r.reply(ctx, msg, "Ban list is empty")
	}

	var sb strings.Builder
	sb.WriteString("Ban list:")
	for _, b := range bans {
		fmt.Fprintf(&sb, "\n  - %d | %s | %s", b.UserID, b.UserName, b.BannedAt.Format(time.DateOnly))
	}

	return r.reply(ctx, msg, sb.String())
}
