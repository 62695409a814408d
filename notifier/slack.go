package notifier

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/nlopes/slack"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/models"
)

const slackGreen = "#00FF00"

// SlackNotifier announces a release to the configured incoming webhook.
type SlackNotifier struct {
	conf *viper.Viper
}

func NewSlackNotifier(conf *viper.Viper) *SlackNotifier {
	return &SlackNotifier{conf: conf}
}

func (n *SlackNotifier) Kind() models.Channel {
	return models.ChannelSlack
}

func (n *SlackNotifier) Configured() bool {
	return n.conf.GetString("slack_webhook_url") != ""
}

func (n *SlackNotifier) Notify(ctx context.Context, release *models.Release, repo *models.Repository) error {
	message := NewMessage(n.conf, release, repo)
	attachment := slack.Attachment{
		Color:     slackGreen,
		Title:     message.Summary,
		TitleLink: release.HTMLURL,
		Text:      message.Description,
		Ts:        json.Number(strconv.FormatInt(time.Now().Unix(), 10)),
	}
	msg := slack.WebhookMessage{
		Attachments: []slack.Attachment{attachment},
	}
	if err := slack.PostWebhook(n.conf.GetString("slack_webhook_url"), &msg); err != nil {
		return errors.Wrapf(err, "issue posting slack notification for [%s]", release.URL)
	}
	return nil
}
