package importer

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-github/v82/github"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releasewatch/releasewatch/models"
)

type fakeStore struct {
	repos    []models.Repository
	releases []*models.Release
	nextID   int64
}

func (s *fakeStore) ImportEnabledRepositories() ([]models.Repository, error) {
	var rtn []models.Repository
	for _, repo := range s.repos {
		if repo.ImportEnabled {
			rtn = append(rtn, repo)
		}
	}
	return rtn, nil
}

func (s *fakeStore) ReleaseExists(url string) (bool, error) {
	for _, release := range s.releases {
		if release.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) InsertRelease(release *models.Release) error {
	if exists, _ := s.ReleaseExists(release.URL); exists {
		return errors.Errorf("duplicate key value violates unique constraint: %s", release.URL)
	}
	s.nextID++
	release.ID = s.nextID
	s.releases = append(s.releases, release)
	return nil
}

func (s *fakeStore) UpdateReleasePending(id int64, pending models.ChannelSet) error {
	for _, release := range s.releases {
		if release.ID == id {
			release.Pending = pending.Clone()
			return nil
		}
	}
	return errors.Errorf("release %d not found", id)
}

type fakeSource struct {
	releases map[string][]*github.RepositoryRelease
	tags     map[string][]*github.RepositoryTag
	errs     map[string]error
}

func (s *fakeSource) ListReleases(_ context.Context, owner, repo string) ([]*github.RepositoryRelease, error) {
	if err := s.errs[owner+"/"+repo]; err != nil {
		return nil, err
	}
	return s.releases[owner+"/"+repo], nil
}

func (s *fakeSource) ListTags(_ context.Context, owner, repo string) ([]*github.RepositoryTag, error) {
	if err := s.errs[owner+"/"+repo]; err != nil {
		return nil, err
	}
	return s.tags[owner+"/"+repo], nil
}

type fakeDispatcher struct {
	dispatched []string
	err        error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, release *models.Release, _ *models.Repository) error {
	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, release.URL)
	return nil
}

func upstreamRelease(url, tag, name string) *github.RepositoryRelease {
	return &github.RepositoryRelease{
		URL:         github.Ptr(url),
		HTMLURL:     github.Ptr(url + "/html"),
		Name:        github.Ptr(name),
		TagName:     github.Ptr(tag),
		Body:        github.Ptr("body of " + tag),
		PublishedAt: &github.Timestamp{Time: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func testRepo() *models.Repository {
	return &models.Repository{
		ID:            1,
		Owner:         "acme",
		Repo:          "widget",
		TagFilter:     `\Av(\d+\.\d+\.\d+)\z`,
		ImportEnabled: true,
		Channels:      models.NewChannelSet(models.ChannelEmail),
	}
}

func TestImportDisabledRepositoryIsANoop(t *testing.T) {
	repo := testRepo()
	repo.ImportEnabled = false
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {upstreamRelease("https://api.example.com/r/1", "v1.0.0", "one")},
	}}
	dispatcher := &fakeDispatcher{}

	imp, err := NewReleaseImporter(repo, true, store, source, dispatcher)
	require.NoError(t, err)

	count, err := imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, store.releases)
	assert.Empty(t, dispatcher.dispatched)
}

func TestImportIsIdempotent(t *testing.T) {
	repo := testRepo()
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {
			upstreamRelease("https://api.example.com/r/1", "v1.0.0", "one"),
			upstreamRelease("https://api.example.com/r/2", "v1.1.0", "two"),
		},
	}}
	dispatcher := &fakeDispatcher{}

	imp, err := NewReleaseImporter(repo, false, store, source, dispatcher)
	require.NoError(t, err)

	count, err := imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// the same upstream listing again creates nothing new
	count, err = imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, store.releases, 2)
}

func TestImportSkipsPrereleasesAndNonMatchingTags(t *testing.T) {
	repo := testRepo()
	pre := upstreamRelease("https://api.example.com/r/1", "v2.0.0", "two")
	pre.Prerelease = github.Ptr(true)
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {
			pre,
			upstreamRelease("https://api.example.com/r/2", "nightly-build", "nightly"),
			upstreamRelease("https://api.example.com/r/3", "v1.0.0", "one"),
		},
	}}
	dispatcher := &fakeDispatcher{}

	imp, err := NewReleaseImporter(repo, false, store, source, dispatcher)
	require.NoError(t, err)

	count, err := imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.releases, 1)
	assert.Equal(t, "v1.0.0", store.releases[0].TagName)
}

func TestImportFallsBackToTagNameWhenNameBlank(t *testing.T) {
	repo := testRepo()
	unnamed := upstreamRelease("https://api.example.com/r/1", "v1.0.0", "")
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {unnamed},
	}}

	imp, err := NewReleaseImporter(repo, false, store, source, &fakeDispatcher{})
	require.NoError(t, err)

	_, err = imp.Perform(context.Background())
	require.NoError(t, err)
	require.Len(t, store.releases, 1)
	assert.Equal(t, "v1.0.0", store.releases[0].Name)
}

func TestImportWithoutNotifyLeavesNoPendingChannels(t *testing.T) {
	repo := testRepo()
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {upstreamRelease("https://api.example.com/r/1", "v1.0.0", "one")},
	}}
	dispatcher := &fakeDispatcher{}

	imp, err := NewReleaseImporter(repo, false, store, source, dispatcher)
	require.NoError(t, err)

	_, err = imp.Perform(context.Background())
	require.NoError(t, err)
	require.Len(t, store.releases, 1)
	assert.Equal(t, 0, store.releases[0].Pending.Len())
	assert.Empty(t, dispatcher.dispatched)
}

func TestImportConstraintConfigurationErrorPropagates(t *testing.T) {
	repo := testRepo()
	repo.TagFilter = `\Av(.+)\z`
	repo.VersionRequirement = []string{">7"}
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {upstreamRelease("https://api.example.com/r/1", "vnot-a-version", "bad")},
	}}

	imp, err := NewReleaseImporter(repo, false, store, source, &fakeDispatcher{})
	require.NoError(t, err)

	_, err = imp.Perform(context.Background())
	assert.Error(t, err)
	assert.Empty(t, store.releases)
}

func TestImportDispatchesRecordByRecord(t *testing.T) {
	repo := testRepo()
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {
			upstreamRelease("https://api.example.com/r/1", "v1.0.0", "one"),
			upstreamRelease("https://api.example.com/r/2", "v1.1.0", "two"),
		},
	}}
	dispatcher := &fakeDispatcher{}

	imp, err := NewReleaseImporter(repo, true, store, source, dispatcher)
	require.NoError(t, err)

	count, err := imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	// upstream-list order, each record dispatched before the next one
	assert.Equal(t, []string{
		"https://api.example.com/r/1",
		"https://api.example.com/r/2",
	}, dispatcher.dispatched)
}

func TestLightweightImportSynthesizesReleases(t *testing.T) {
	repo := testRepo()
	repo.Lightweight = true
	store := &fakeStore{}
	source := &fakeSource{tags: map[string][]*github.RepositoryTag{
		"acme/widget": {{
			Name:       github.Ptr("v2.0.0"),
			TarballURL: github.Ptr("https://api.example.com/tarball/v2.0.0.tar.gz"),
		}},
	}}
	dispatcher := &fakeDispatcher{}

	before := time.Now().UTC()
	imp, err := NewReleaseImporter(repo, false, store, source, dispatcher)
	require.NoError(t, err)

	count, err := imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, store.releases, 1)
	release := store.releases[0]
	assert.Equal(t, "https://api.example.com/tarball/v2.0.0.tar.gz", release.URL)
	assert.Equal(t, "https://github.com/acme/widget/releases/tag/v2.0.0", release.HTMLURL)
	assert.Equal(t, "v2.0.0", release.Name)
	assert.Equal(t, "New tag v2.0.0 was pushed.", release.Body)
	// tags carry no publish timestamp upstream, the import time stands in
	assert.True(t, !release.PublishedAt.Before(before))
	assert.True(t, !release.PublishedAt.After(time.Now().UTC()))
}

func TestLightweightImportDedupsByTarballURL(t *testing.T) {
	repo := testRepo()
	repo.Lightweight = true
	store := &fakeStore{}
	source := &fakeSource{tags: map[string][]*github.RepositoryTag{
		"acme/widget": {{
			Name:       github.Ptr("v2.0.0"),
			TarballURL: github.Ptr("https://api.example.com/tarball/v2.0.0.tar.gz"),
		}},
	}}

	imp, err := NewReleaseImporter(repo, false, store, source, &fakeDispatcher{})
	require.NoError(t, err)

	_, err = imp.Perform(context.Background())
	require.NoError(t, err)
	count, err := imp.Perform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, store.releases, 1)
}

func TestImportRejectsDegenerateUpstreamRelease(t *testing.T) {
	repo := testRepo()
	repo.TagFilter = ""
	// only url and tag_name present, no html_url and no publish timestamp
	degenerate := &github.RepositoryRelease{
		URL:     github.Ptr("https://api.example.com/r/1"),
		TagName: github.Ptr("v1.0.0"),
	}
	store := &fakeStore{}
	source := &fakeSource{releases: map[string][]*github.RepositoryRelease{
		"acme/widget": {degenerate},
	}}

	imp, err := NewReleaseImporter(repo, false, store, source, &fakeDispatcher{})
	require.NoError(t, err)

	_, err = imp.Perform(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "html_url")
	assert.Contains(t, err.Error(), "published_at")
	assert.Empty(t, store.releases)
}

func TestImportUpstreamErrorPropagates(t *testing.T) {
	repo := testRepo()
	store := &fakeStore{}
	source := &fakeSource{errs: map[string]error{
		"acme/widget": errors.New("upstream outage"),
	}}

	imp, err := NewReleaseImporter(repo, true, store, source, &fakeDispatcher{})
	require.NoError(t, err)

	count, err := imp.Perform(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, count)
}
