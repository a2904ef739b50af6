package Slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// UpdatedPrefix marks the line of a board message that carries its
// timestamp. Lines starting with it are ignored when deciding whether the
// board changed.
const UpdatedPrefix = "Last updated:"

// Board keeps a single pinned status message in a channel. Each Publish
// replaces the bot's previous messages and pins the new one.
type Board struct {
	client  *slack.Client
	Channel string
	Log     *zap.Logger
}

// NewBoard builds a board for channel. apiURL overrides the Slack endpoint
// and must end with a slash; leave it empty for the public API.
func NewBoard(token, channel, apiURL string, log *zap.Logger) *Board {
	var options []slack.Option
	if apiURL != "" {
		options = append(options, slack.OptionAPIURL(apiURL))
	}
	return &Board{
		client:  slack.New(token, options...),
		Channel: channel,
		Log:     log,
	}
}

// Publish posts text and pins it, after clearing the bot's older messages
// and pins. Nothing is posted when the latest bot message already says the
// same thing.
func (b *Board) Publish(ctx context.Context, text string) error {
	history, err := b.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: b.Channel,
		Limit:     100,
	})
	if err != nil {
		b.Log.Warn("could not read channel history", zap.String("channel", b.Channel), zap.Error(err))
	} else {
		var previous []string
		for _, msg := range history.Messages {
			if msg.BotID == "" {
				continue
			}
			if len(previous) == 0 && sameContent(msg.Text, text) {
				b.Log.Debug("board unchanged", zap.String("channel", b.Channel))
				return nil
			}
			previous = append(previous, msg.Timestamp)
		}
		for _, ts := range previous {
			if _, _, err := b.client.DeleteMessageContext(ctx, b.Channel, ts); err != nil && !isSlackError(err, "message_not_found") {
				b.Log.Warn("could not delete message", zap.String("ts", ts), zap.Error(err))
			}
		}
	}

	pins, _, err := b.client.ListPinsContext(ctx, b.Channel)
	if err != nil {
		b.Log.Warn("could not list pins", zap.String("channel", b.Channel), zap.Error(err))
	}
	for _, item := range pins {
		if item.Message == nil {
			continue
		}
		ref := slack.NewRefToMessage(b.Channel, item.Message.Timestamp)
		if err := b.client.RemovePinContext(ctx, b.Channel, ref); err != nil && !isSlackError(err, "no_pin") {
			b.Log.Warn("could not unpin message", zap.String("ts", item.Message.Timestamp), zap.Error(err))
		}
	}

	_, ts, err := b.client.PostMessageContext(ctx, b.Channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post to %s: %w", b.Channel, err)
	}
	if err := b.client.AddPinContext(ctx, b.Channel, slack.NewRefToMessage(b.Channel, ts)); err != nil && !isSlackError(err, "already_pinned") {
		b.Log.Warn("message posted but not pinned", zap.String("ts", ts), zap.Error(err))
	}
	return nil
}

func sameContent(a, b string) bool {
	return withoutTimestamps(a) == withoutTimestamps(b)
}

func withoutTimestamps(message string) string {
	var kept []string
	for _, line := range strings.Split(message, "\n") {
		if strings.HasPrefix(strings.Trim(line, "*_ "), UpdatedPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isSlackError(err error, code string) bool {
	return err != nil && err.Error() == code
}
