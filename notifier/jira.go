package notifier

import (
	"context"

	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/client"
	"github.com/releasewatch/releasewatch/models"
)

// JiraNotifier announces a release by filing an issue in the configured
// JIRA project.
type JiraNotifier struct {
	conf *viper.Viper
	jira *client.JiraClient
}

func NewJiraNotifier(conf *viper.Viper, jira *client.JiraClient) *JiraNotifier {
	return &JiraNotifier{conf: conf, jira: jira}
}

func (n *JiraNotifier) Kind() models.Channel {
	return models.ChannelJira
}

func (n *JiraNotifier) Configured() bool {
	return n.jira != nil && n.jira.Configured()
}

func (n *JiraNotifier) Notify(ctx context.Context, release *models.Release, repo *models.Repository) error {
	message := NewMessage(n.conf, release, repo)
	_, err := n.jira.CreateIssue(ctx, message.Summary, message.Description)
	return err
}
