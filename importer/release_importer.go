package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v82/github"
	"github.com/pkg/errors"

	"github.com/releasewatch/releasewatch/models"
)

// Store is the slice of the durable store the importers need.
type Store interface {
	ImportEnabledRepositories() ([]models.Repository, error)
	ReleaseExists(url string) (bool, error)
	InsertRelease(release *models.Release) error
}

// Source lists a repository's releases and tags with pagination already
// folded away.
type Source interface {
	ListReleases(ctx context.Context, owner, repo string) ([]*github.RepositoryRelease, error)
	ListTags(ctx context.Context, owner, repo string) ([]*github.RepositoryTag, error)
}

// Dispatcher drives the pending notification channels of one release.
type Dispatcher interface {
	Dispatch(ctx context.Context, release *models.Release, repo *models.Repository) error
}

// ReleaseImporter imports all new matching releases for one repository
// and, when notify is set, drives the notification channels for each new
// record before moving on to the next candidate.
type ReleaseImporter struct {
	repo       *models.Repository
	notify     bool
	store      Store
	source     Source
	dispatcher Dispatcher
	filter     *VersionFilter
}

func NewReleaseImporter(repo *models.Repository, notify bool, store Store,
	source Source, dispatcher Dispatcher) (*ReleaseImporter, error) {
	filter, err := VersionFilterForRepository(repo)
	if err != nil {
		return nil, err
	}
	imp := ReleaseImporter{
		repo:       repo,
		notify:     notify,
		store:      store,
		source:     source,
		dispatcher: dispatcher,
		filter:     filter,
	}
	return &imp, nil
}

// Perform fetches candidates, filters, dedups, persists and dispatches.
// It returns the number of newly created releases. A repository with
// import disabled is a no-op, not an error.
func (imp *ReleaseImporter) Perform(ctx context.Context) (int, error) {
	if !imp.repo.ImportEnabled {
		return 0, nil
	}
	if imp.repo.Lightweight {
		return imp.importTags(ctx)
	}
	return imp.importReleases(ctx)
}

func (imp *ReleaseImporter) importReleases(ctx context.Context) (int, error) {
	releases, err := imp.source.ListReleases(ctx, imp.repo.Owner, imp.repo.Repo)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, upstream := range releases {
		if upstream.GetPrerelease() {
			continue
		}
		exists, err := imp.store.ReleaseExists(upstream.GetURL())
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}
		matched, err := imp.filter.Matches(upstream.GetTagName())
		if err != nil {
			return count, err
		}
		if !matched {
			continue
		}

		name := upstream.GetName()
		if name == "" {
			name = upstream.GetTagName()
		}
		release := &models.Release{
			RepositoryID: imp.repo.ID,
			URL:          upstream.GetURL(),
			HTMLURL:      upstream.GetHTMLURL(),
			Name:         name,
			TagName:      upstream.GetTagName(),
			Body:         upstream.GetBody(),
			PublishedAt:  upstream.GetPublishedAt().Time,
			Pending:      imp.pendingChannels(),
		}
		if err := release.Validate(); err != nil {
			return count, err
		}
		if err := imp.store.InsertRelease(release); err != nil {
			return count, errors.Wrapf(err, "issue persisting release [%s]", release.URL)
		}
		count++
		if err := imp.notifyAbout(ctx, release); err != nil {
			return count, err
		}
	}
	return count, nil
}

// importTags creates sparse releases from lightweight tags. Plain tags
// have no release URL, so the tarball URL is the dedup key, and no
// publish timestamp, so the import time stands in for it.
func (imp *ReleaseImporter) importTags(ctx context.Context) (int, error) {
	tags, err := imp.source.ListTags(ctx, imp.repo.Owner, imp.repo.Repo)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, tag := range tags {
		exists, err := imp.store.ReleaseExists(tag.GetTarballURL())
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}
		matched, err := imp.filter.Matches(tag.GetName())
		if err != nil {
			return count, err
		}
		if !matched {
			continue
		}

		release := &models.Release{
			RepositoryID: imp.repo.ID,
			URL:          tag.GetTarballURL(),
			HTMLURL: fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s",
				imp.repo.Owner, imp.repo.Repo, tag.GetName()),
			Name:        tag.GetName(),
			TagName:     tag.GetName(),
			Body:        fmt.Sprintf("New tag %s was pushed.", tag.GetName()),
			PublishedAt: time.Now().UTC(),
			Pending:     imp.pendingChannels(),
		}
		if err := release.Validate(); err != nil {
			return count, err
		}
		if err := imp.store.InsertRelease(release); err != nil {
			return count, errors.Wrapf(err, "issue persisting release [%s]", release.URL)
		}
		count++
		if err := imp.notifyAbout(ctx, release); err != nil {
			return count, err
		}
	}
	return count, nil
}

// notifyAbout drives the channels for one freshly created record. The
// record is persisted before any delivery happens, so a crash in between
// leaves a record the next run will not re-import.
func (imp *ReleaseImporter) notifyAbout(ctx context.Context, release *models.Release) error {
	if !imp.notify {
		return nil
	}
	return imp.dispatcher.Dispatch(ctx, release, imp.repo)
}

func (imp *ReleaseImporter) pendingChannels() models.ChannelSet {
	if imp.notify {
		return imp.repo.Channels.Clone()
	}
	return models.ChannelSet{}
}
