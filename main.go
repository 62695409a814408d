package main

import (
	"fmt"
	"os"

	"github.com/releasewatch/releasewatch/client"
	"github.com/releasewatch/releasewatch/config"
	"github.com/releasewatch/releasewatch/importer"
	"github.com/releasewatch/releasewatch/log"
	"github.com/releasewatch/releasewatch/notifier"
	"github.com/releasewatch/releasewatch/server"
	"github.com/releasewatch/releasewatch/worker"
)

func main() {
	configName := os.Getenv("CONFIG_NAME")
	if configName == "" {
		configName = "app"
	}
	conf := config.SetUpConfig(configName)
	log.SetUpLogger()

	clients := client.SetUpClients(conf)
	dispatcher := notifier.NewDispatcher(clients.PostgresClient,
		notifier.NewEmailNotifier(conf),
		notifier.NewJiraNotifier(conf, clients.JiraClient),
		notifier.NewSlackNotifier(conf),
	)

	fleet := importer.NewFleetImporter(clients.PostgresClient, clients.GithubClient, dispatcher)
	importWorker := worker.InitializeImportWorker(conf, conf.GetDuration("poll_interval"), fleet)
	go importWorker.Run()

	service := server.RepositoryService{
		Conf:       conf,
		Store:      clients.PostgresClient,
		Source:     clients.GithubClient,
		Dispatcher: dispatcher,
	}
	if err := server.SetUpRouter(service).Run(fmt.Sprintf(":%d", conf.GetInt("port"))); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v\n", err))
	}
}
