package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/slack-go/slack"
)

type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token, opts...),
		channel: channel,
	}
}

func (s *SlackNotifier) OfflineSaved(ctx context.Context, n Notice) error {
	attachment := slack.Attachment{
		Color: "#ffcc00",
		Title: fmt.Sprintf("Saved locally: %s %s", n.Resource, n.Action),
		Text:  "The report backend was unreachable. The change is kept in the offline snapshot.",
		Fields: []slack.AttachmentField{
			{
				Title: "Name",
				Value: n.Name,
				Short: true,
			},
			{
				Title: "Local ref",
				Value: n.LocalRef,
				Short: true,
			},
		},
		Footer: "reportconsole",
		Ts:     json.Number(strconv.FormatInt(n.At.Unix(), 10)),
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("failed to send slack notice: %w", err)
	}
	return nil
}
