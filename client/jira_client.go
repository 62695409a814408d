package client

import (
	"context"

	jira "github.com/andygrunwald/go-jira/v2/cloud"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// JiraClient wraps the JIRA cloud API. When the plugin is disabled the
// client is still constructed, it just reports Configured() == false and
// every dispatch for the channel becomes an intentional skip.
type JiraClient struct {
	client *jira.Client
	conf   *viper.Viper
}

func InitializeJiraClient(conf *viper.Viper) (*JiraClient, error) {
	rtn := JiraClient{conf: conf}
	if !conf.GetBool("jira_enabled") {
		return &rtn, nil
	}

	tp := jira.BasicAuthTransport{
		Username: conf.GetString("jira_username"),
		APIToken: conf.GetString("jira_api_token"),
	}
	client, err := jira.NewClient(conf.GetString("jira_url"), tp.Client())
	if err != nil {
		return &rtn, errors.Wrap(err, "starting jira client failed")
	}
	rtn.client = client
	return &rtn, nil
}

func (client *JiraClient) Configured() bool {
	return client.client != nil
}

// CreateIssue files one issue in the configured project and returns its
// key.
func (client *JiraClient) CreateIssue(ctx context.Context, summary, description string) (string, error) {
	fields := &jira.IssueFields{
		Project: jira.Project{
			Key: client.conf.GetString("jira_project"),
		},
		Type: jira.IssueType{
			Name: client.conf.GetString("jira_issue_type"),
		},
		Summary:     summary,
		Description: description,
		Labels:      client.conf.GetStringSlice("jira_labels"),
	}
	if name := client.conf.GetString("jira_component"); name != "" {
		fields.Components = []*jira.Component{{Name: name}}
	}

	created, _, err := client.client.Issue.Create(ctx, &jira.Issue{Fields: fields})
	if err != nil {
		return "", errors.Wrapf(err, "issue creating jira issue %q", summary)
	}
	return created.Key, nil
}
