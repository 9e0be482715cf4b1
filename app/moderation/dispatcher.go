package moderation

import (
	"context"
	"errors"
	"fmt"

	"nuclight.org/moderation-tg-bot/app/config"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
	"nuclight.org/moderation-tg-bot/pkg/logger"
)

// Gateway is the messaging surface the dispatcher drives.
type Gateway interface {
	Forward(ctx context.Context, toChatID int64, from e.MessageRef) (e.Message, error)
	Copy(ctx context.Context, toChatID int64, from e.MessageRef) (e.MessageRef, error)
	SendText(ctx context.Context, msg e.OutgoingText) (e.MessageRef, error)
	SendMedia(ctx context.Context, msg e.OutgoingMedia) (e.Sent, error)
	EditCaption(ctx context.Context, ref e.MessageRef, caption string) error
	Delete(ctx context.Context, ref e.MessageRef) error
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type Ledger interface {
	RecordSubmission(ctx context.Context, sub e.PendingSubmission) error
	ClaimSubmission(ctx context.Context, review e.MessageRef) (e.PendingSubmission, error)
}

type Responses interface {
	Draw(ctx context.Context, category e.Category) (e.MediaBlob, error)
	Deliver(ctx context.Context, chatID int64, replyTo int, blob e.MediaBlob) (e.Sent, error)
}

type StatsStore interface {
	IncrementOffered(ctx context.Context, userID int64) error
	IncrementAccepted(ctx context.Context, userID int64) error
	IncrementDeclined(ctx context.Context, userID int64) error
}

type BanStore interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

type CommandHandler interface {
	HandleCommand(ctx context.Context, msg e.Message) error
}

// Dispatcher turns submissions into review cards and review decisions into a
// publish or discard plus a canned reply. A submission is under review while
// its ledger entry is unclaimed; the first decision claims it.
type Dispatcher struct {
	Log       logger.Logger
	Chats     config.Chats
	Gateway   Gateway
	Ledger    Ledger
	Responses Responses
	Stats     StatsStore
	Bans      BanStore

	// Commands receives commands posted in the review chat, may be nil
	Commands CommandHandler
}

const (
	cardQuestion = "We going to shitpost it?"

	publishedText = "🎉 Post is published."
	rejectedText  = "🚧 Post was rejected. Send me something cooler."
)

// HandleMessage handles a message received by the bot. Messages in the review
// chat are routed to the command handler, everything else from submitters is
// put up for review.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg e.Message) error {
	log := d.Log.With("tg_chat_id", msg.Ref.ChatID, "tg_message_id", msg.Ref.MessageID)

	switch msg.Ref.ChatID {
	case d.Chats.ReviewChatID:
		if d.Commands != nil && msg.IsCommand() {
			return d.Commands.HandleCommand(ctx, msg)
		}
		return nil
	case d.Chats.ChannelID:
		return nil
	}

	if msg.IsCommand() {
		log.Debug("ignoring command from submitter", "text", msg.CommandText())
		return nil
	}

	if msg.From != nil && d.Bans != nil {
		banned, err := d.Bans.IsBanned(ctx, msg.From.ID)
		if err != nil {
			log.Error("checking ban", "error", err)
		}
		if banned {
			log.Info("dropping submission of banned user", "tg_user_id", msg.From.ID)
			return nil
		}
	}

	return d.submit(ctx, msg)
}

func (d *Dispatcher) submit(ctx context.Context, msg e.Message) error {
	review := d.Chats.ReviewChatID

	fwd, err := d.Gateway.Forward(ctx, review, msg.Ref)
	if err != nil {
		return fmt.Errorf("forwarding submission: %w", err)
	}

	var from e.User
	if msg.From != nil {
		from = *msg.From
	}

	card, err := d.Gateway.SendText(ctx, e.OutgoingText{
		ChatID:   review,
		Text:     fmt.Sprintf("From: %s\n%s", from.Title(), cardQuestion),
		ReplyTo:  fwd.Ref.MessageID,
		Keyboard: reviewKeyboard(msg),
	})
	if err != nil {
		return fmt.Errorf("sending review card: %w", err)
	}

	secondary := fwd.Ref.MessageID
	err = d.Ledger.RecordSubmission(ctx, e.PendingSubmission{
		Origin:             msg.Ref,
		SubmitterID:        from.ID,
		SubmitterName:      from.Title(),
		Review:             card,
		SecondaryMessageID: &secondary,
	})
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}

	submissionsCounter.Inc()
	d.Log.Info(
		"submission sent to review",
		"tg_user_id", from.ID,
		"tg_chat_id", msg.Ref.ChatID,
		"tg_message_id", msg.Ref.MessageID,
		"review_message_id", card.MessageID,
	)

	if d.Stats != nil && from.ID != 0 {
		if err := d.Stats.IncrementOffered(ctx, from.ID); err != nil {
			d.Log.Error("incrementing offered", "tg_user_id", from.ID, "error", err)
		}
	}

	return nil
}

func reviewKeyboard(msg e.Message) e.Keyboard {
	accept := e.Button{Text: "✅ Accept", Data: string(e.DecisionAccept)}
	decline := e.Button{Text: "❌ Decline", Data: string(e.DecisionDecline)}

	switch {
	case !msg.HasMedia():
		silent := e.Button{Text: "🔇 Silent decline", Data: string(e.DecisionDeclineSilent)}
		return e.Keyboard{{accept, decline, silent}}
	case msg.HasCaption():
		noCaption := e.Button{Text: "☢️ Without text", Data: string(e.DecisionAcceptNoCaption)}
		return e.Keyboard{{accept, noCaption}, {decline}}
	default:
		return e.Keyboard{{accept, decline}}
	}
}

// HandleCallback applies a reviewer decision. Secondary effects (the reply to
// the submitter, stats, cleanup) never fail the call; only a failed publish is
// returned, after cleanup has run.
func (d *Dispatcher) HandleCallback(ctx context.Context, cb e.Callback) error {
	decision, ok := e.ParseDecision(cb.Data)
	if !ok {
		d.Log.Debug("ignoring unknown decision", "data", cb.Data)
		return nil
	}

	card := cb.Message
	if card == nil {
		return fmt.Errorf("decision %s has no review card", decision)
	}
	if card.Ref.ChatID != d.Chats.ReviewChatID {
		d.Log.Warn("decision outside of review chat", "tg_chat_id", card.Ref.ChatID)
		return nil
	}

	log := d.Log.With("decision", decision, "review_message_id", card.Ref.MessageID)
	forwarded := card.ReplyTo

	defer d.cleanup(ctx, log, card, forwarded)

	sub, err := d.Ledger.ClaimSubmission(ctx, card.Ref)
	claimed := err == nil
	switch {
	case claimed:
	case errors.Is(err, e.ErrAlreadyDecided):
		log.Info("submission already decided")
		return nil
	case errors.Is(err, e.ErrNotFound):
		log.Warn("no ledger entry for review card")
	default:
		log.Error("claiming submission", "error", err)
	}

	decisionsCounter.WithLabelValues(string(decision)).Inc()

	if decision.IsAccept() {
		if forwarded == nil {
			return fmt.Errorf("review card %d is not a reply to the submission", card.Ref.MessageID)
		}
		if err := d.publish(ctx, log, forwarded, decision.KeepsCaption()); err != nil {
			return fmt.Errorf("publishing submission: %w", err)
		}
		log.Info("submission published")
	}

	if !claimed {
		return nil
	}

	d.countDecision(ctx, log, sub.SubmitterID, decision)

	if !decision.IsSilent() {
		d.respond(ctx, log, sub, decision)
	}

	return nil
}

// publish re-sends the forwarded copy to the channel with a typed call when the
// attachment can be fetched, and copies it opaquely otherwise.
func (d *Dispatcher) publish(ctx context.Context, log logger.Logger, fwd *e.Message, keepCaption bool) error {
	caption := ""
	if keepCaption {
		caption = fwd.Caption
	}

	kind, data, err := d.fetchAttachment(ctx, fwd)
	if err == nil {
		_, err = d.Gateway.SendMedia(ctx, e.OutgoingMedia{
			ChatID:  d.Chats.ChannelID,
			Kind:    kind,
			File:    e.InputFile{Name: kind.FileName(), Bytes: data},
			Caption: caption,
		})
		if err != nil {
			return fmt.Errorf("sending %s: %w", kind, err)
		}
		return nil
	}

	log.Debug("publishing by copy", "reason", err)

	ref, err := d.Gateway.Copy(ctx, d.Chats.ChannelID, fwd.Ref)
	if err != nil {
		return fmt.Errorf("copying message: %w", err)
	}

	if !keepCaption && fwd.HasCaption() {
		if err := d.Gateway.EditCaption(ctx, ref, ""); err != nil {
			return fmt.Errorf("removing caption: %w", err)
		}
	}

	return nil
}

var (
	errNoAttachment    = errors.New("no attachment")
	errUnsupportedKind = errors.New("unsupported attachment kind")
)

func (d *Dispatcher) fetchAttachment(ctx context.Context, msg *e.Message) (e.MediaKind, []byte, error) {
	if msg.Attachment == nil {
		return e.MediaKindOpaque, nil, errNoAttachment
	}

	kind := msg.Attachment.Kind()
	if kind == e.MediaKindOpaque {
		return kind, nil, fmt.Errorf("%w: %q", errUnsupportedKind, msg.Attachment.MimeType)
	}

	data, err := d.Gateway.Download(ctx, msg.Attachment.FileID)
	if err != nil {
		return kind, nil, fmt.Errorf("downloading attachment: %w", err)
	}

	return kind, data, nil
}

// respond replies to the submitter with a clip of the decision's category, or a
// plain text when the category has no clips.
func (d *Dispatcher) respond(ctx context.Context, log logger.Logger, sub e.PendingSubmission, decision e.Decision) {
	accepted := decision.IsAccept()
	origin := sub.Origin

	blob, err := d.Responses.Draw(ctx, e.CategoryFor(accepted))
	if err != nil {
		if !errors.Is(err, e.ErrEmptyCategory) {
			log.Error("drawing response clip", "error", err)
			return
		}

		text := rejectedText
		if accepted {
			text = publishedText
		}

		_, err = d.Gateway.SendText(ctx, e.OutgoingText{ChatID: origin.ChatID, Text: text, ReplyTo: origin.MessageID})
		if err != nil {
			log.Error("replying to submitter", "tg_chat_id", origin.ChatID, "error", err)
		}
		return
	}

	if _, err := d.Responses.Deliver(ctx, origin.ChatID, origin.MessageID, blob); err != nil {
		log.Error("delivering response clip", "tg_chat_id", origin.ChatID, "media_key", blob.Key(), "error", err)
	}
}

func (d *Dispatcher) countDecision(ctx context.Context, log logger.Logger, userID int64, decision e.Decision) {
	if d.Stats == nil || userID == 0 {
		return
	}

	var err error
	if decision.IsAccept() {
		err = d.Stats.IncrementAccepted(ctx, userID)
	} else {
		err = d.Stats.IncrementDeclined(ctx, userID)
	}
	if err != nil {
		log.Error("updating stats", "tg_user_id", userID, "error", err)
	}
}

// cleanup removes the forwarded copy and the card from the review chat.
func (d *Dispatcher) cleanup(ctx context.Context, log logger.Logger, card, forwarded *e.Message) {
	if forwarded != nil {
		if err := d.Gateway.Delete(ctx, forwarded.Ref); err != nil {
			log.Error("deleting forwarded copy", "tg_message_id", forwarded.Ref.MessageID, "error", err)
		}
	}

	if err := d.Gateway.Delete(ctx, card.Ref); err != nil {
		log.Error("deleting review card", "tg_message_id", card.Ref.MessageID, "error", err)
	}
}
