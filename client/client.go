package client

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/log"
)

// Clients bundles the external collaborators. They are constructed once
// at process startup and passed by handle into the importer, the worker
// and the server.
type Clients struct {
	PostgresClient *PostgresClient
	GithubClient   *GithubClient
	JiraClient     *JiraClient
}

func SetUpClients(conf *viper.Viper) *Clients {
	postgresClient, err := InitializePostgresClient(conf)
	if err != nil {
		panic(fmt.Errorf("starting postgres client failed: %v", err))
	}

	githubClient, err := InitializeGithubClient(conf)
	if err != nil {
		panic(fmt.Errorf("starting github client failed: %v", err))
	}

	jiraClient, err := InitializeJiraClient(conf)
	if err != nil {
		// run on without the channel, dispatch treats it as unconfigured
		log.LogAppErr("error initializing jira client", err)
	}

	clients := Clients{
		PostgresClient: postgresClient,
		GithubClient:   githubClient,
		JiraClient:     jiraClient,
	}
	return &clients
}
