// Package slack posts ops notifications to a Slack channel.
package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/taskhub/internal/notify"
)

// SlackAPI abstracts the subset of the Slack client used by Sender.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Sender implements notify.Sender for a single Slack channel.
type Sender struct {
	api     SlackAPI
	channel string
}

var _ notify.Sender = (*Sender)(nil) //nolint:gochecknoglobals // compile-time check

// New creates a Sender with the given API client.
func New(api SlackAPI, channel string) *Sender {
	return &Sender{api: api, channel: channel}
}

// NewWithToken creates a Sender backed by a bot token.
func NewWithToken(token, channel string) *Sender {
	return New(slacklib.New(token), channel)
}

// Send posts text, rendered as a single section block with a plain-text fallback.
func (s *Sender) Send(ctx context.Context, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel,
		slacklib.MsgOptionText(text, false),
		slacklib.MsgOptionBlocks(BuildBlocks(text)...),
	)
	if err != nil {
		return fmt.Errorf("slack.Sender.Send: %w", err)
	}
	return nil
}

// Platform returns the messenger platform identifier.
func (s *Sender) Platform() string {
	return "slack"
}

// BuildBlocks renders text as one mrkdwn section.
func BuildBlocks(text string) []slacklib.Block {
	return []slacklib.Block{
		slacklib.NewSectionBlock(slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false), nil, nil),
	}
}
