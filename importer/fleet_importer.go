package importer

import (
	"context"
	"fmt"

	"github.com/releasewatch/releasewatch/log"
)

// FleetImporter runs one import pass over every repository flagged for
// import. A single repository's failure is logged and must never abort
// the rest of the run.
type FleetImporter struct {
	store      Store
	source     Source
	dispatcher Dispatcher
}

func NewFleetImporter(store Store, source Source, dispatcher Dispatcher) *FleetImporter {
	imp := FleetImporter{
		store:      store,
		source:     source,
		dispatcher: dispatcher,
	}
	return &imp
}

func (imp *FleetImporter) Perform(ctx context.Context) error {
	log.LogAppInfo("Starting to import new releases")
	repos, err := imp.store.ImportEnabledRepositories()
	if err != nil {
		log.LogAppErr("Couldn't list import enabled repositories", err)
		return err
	}

	for i := range repos {
		repo := &repos[i]
		releaseImporter, err := NewReleaseImporter(repo, repo.ImportEnabled,
			imp.store, imp.source, imp.dispatcher)
		if err != nil {
			log.LogAppErr(fmt.Sprintf("Couldn't build release importer for %s", repo.Param()), err)
			continue
		}
		count, err := releaseImporter.Perform(ctx)
		if err != nil {
			log.LogAppErr(fmt.Sprintf("Error while importing releases for %s", repo.Param()), err)
			continue
		}
		log.LogAppInfo(fmt.Sprintf("Imported %d releases for %s.", count, repo.Param()))
	}
	log.LogAppInfo("Finished importing new releases")
	return nil
}
