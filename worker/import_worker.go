package worker

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/importer"
	"github.com/releasewatch/releasewatch/log"
)

// ImportWorker triggers a fleet import every poll interval. One worker
// goroutine runs per process, so at most one fleet run is active at a
// time.
type ImportWorker struct {
	conf         *viper.Viper
	pollInterval time.Duration
	fleet        *importer.FleetImporter
}

func InitializeImportWorker(conf *viper.Viper, pollInterval time.Duration,
	fleet *importer.FleetImporter) *ImportWorker {
	iw := ImportWorker{
		conf:         conf,
		pollInterval: pollInterval,
		fleet:        fleet,
	}
	return &iw
}

func (iw *ImportWorker) Run() {
	for {
		iw.runOnce()
		time.Sleep(iw.pollInterval)
	}
}

func (iw *ImportWorker) runOnce() {
	if err := iw.fleet.Perform(context.Background()); err != nil {
		log.LogAppErr("Fleet import run failed", err)
	}
}
