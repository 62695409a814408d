package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/client"
	"github.com/releasewatch/releasewatch/feed"
	"github.com/releasewatch/releasewatch/importer"
	"github.com/releasewatch/releasewatch/log"
	"github.com/releasewatch/releasewatch/models"
)

// Store is the durable-store surface the HTTP layer reads and writes.
// *client.PostgresClient satisfies it.
type Store interface {
	importer.Store
	ListRepositories() ([]models.Repository, error)
	GetRepository(owner, repo string) (*models.Repository, error)
	GetRepositoryByID(id int64) (*models.Repository, error)
	InsertRepository(repo *models.Repository) error
	UpdateRepository(repo *models.Repository) error
	DeleteRepository(id int64) error
	GetRelease(id int64) (*models.Release, error)
	ReleasesForRepository(repositoryID int64) ([]models.Release, error)
	CountReleases(repositoryID int64) (int, error)
	DeleteReleasesForRepository(repositoryID int64) error
	UpdateReleasePending(id int64, pending models.ChannelSet) error
	Ping() error
}

// Dispatcher is the notification surface the HTTP layer drives for
// manual imports and forced renotifies.
type Dispatcher interface {
	importer.Dispatcher
	Renotify(ctx context.Context, release *models.Release, repo *models.Repository, ch models.Channel) error
}

type RepositoryService struct {
	Conf       *viper.Viper
	Store      Store
	Source     importer.Source
	Dispatcher Dispatcher
}

// GetRepositories returns every tracked repository with its release
// count and feed URLs.
func (m RepositoryService) GetRepositories(c *gin.Context) {
	repos, err := m.Store.ListRepositories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	host := strings.TrimRight(m.Conf.GetString("host"), "/")
	response := []gin.H{}
	for i := range repos {
		repo := &repos[i]
		count, err := m.Store.CountReleases(repo.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response = append(response, gin.H{
			"url":                 fmt.Sprintf("%s/repos/%s", host, repo.Param()),
			"atom_url":            fmt.Sprintf("%s/repos/%s/atom", host, repo.Param()),
			"releases_count":      count,
			"owner":               repo.Owner,
			"repo":                repo.Repo,
			"tag_filter":          repo.TagFilter,
			"version_requirement": repo.VersionRequirement,
			"lightweight":         repo.Lightweight,
			"import_enabled":      repo.ImportEnabled,
			"configured_channels": repo.Channels.Names(),
			"created_at":          repo.CreatedAt,
			"updated_at":          repo.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}

// GetRepository returns the releases of one "owner:repo", sorted by
// extracted version descending; releases without an extractable version
// sort last by publish time.
func (m RepositoryService) GetRepository(c *gin.Context) {
	repo, ok := m.findRepository(c)
	if !ok {
		return
	}
	releases, err := m.sortedReleases(repo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, releases)
}

// GetRepositoryAtom serves the same release list as an Atom feed.
func (m RepositoryService) GetRepositoryAtom(c *gin.Context) {
	repo, ok := m.findRepository(c)
	if !ok {
		return
	}
	releases, err := m.sortedReleases(repo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(releases) == 0 {
		c.Status(http.StatusNotFound)
		return
	}
	rendered, err := feed.BuildAtom(m.Conf.GetString("host"), repo, releases)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(rendered))
}

// AddRepository creates a repository and runs one silent import so the
// current releases are on record without announcing them.
func (m RepositoryService) AddRepository(c *gin.Context) {
	var req AddRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channels := models.ChannelSet{}
	for _, name := range req.Channels {
		ch, err := models.ParseChannel(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		channels.Add(ch)
	}

	// reject unusable filter configuration up front
	if _, err := importer.NewVersionFilter(req.TagFilter, req.VersionRequirement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	importEnabled := true
	if req.ImportEnabled != nil {
		importEnabled = *req.ImportEnabled
	}
	repo := &models.Repository{
		Owner:              req.Owner,
		Repo:               req.Repo,
		TagFilter:          req.TagFilter,
		VersionRequirement: pq.StringArray(req.VersionRequirement),
		Lightweight:        req.Lightweight,
		ImportEnabled:      importEnabled,
		Channels:           channels,
	}
	if err := m.Store.InsertRepository(repo); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if _, err := m.runImport(c.Request.Context(), repo, false); err != nil {
		log.LogAppErr(fmt.Sprintf("Couldn't run initial import for %s", repo.Param()), err)
	}
	c.JSON(http.StatusCreated, repo)
}

// UpdateRepository replaces a repository's configuration. Pending
// snapshots on existing releases are untouched; only future imports see
// the new channels and filter.
func (m RepositoryService) UpdateRepository(c *gin.Context) {
	repo, ok := m.findRepository(c)
	if !ok {
		return
	}

	var req UpdateRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channels := models.ChannelSet{}
	for _, name := range req.Channels {
		ch, err := models.ParseChannel(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		channels.Add(ch)
	}
	if _, err := importer.NewVersionFilter(req.TagFilter, req.VersionRequirement); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	repo.TagFilter = req.TagFilter
	repo.VersionRequirement = pq.StringArray(req.VersionRequirement)
	repo.Lightweight = req.Lightweight
	if req.ImportEnabled != nil {
		repo.ImportEnabled = *req.ImportEnabled
	}
	repo.Channels = channels

	if err := m.Store.UpdateRepository(repo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, repo)
}

// DeleteRepository removes a repository; its releases cascade with it.
func (m RepositoryService) DeleteRepository(c *gin.Context) {
	repo, ok := m.findRepository(c)
	if !ok {
		return
	}
	if err := m.Store.DeleteRepository(repo.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// ReimportRepository wipes and rebuilds one repository's releases
// without announcing them.
func (m RepositoryService) ReimportRepository(c *gin.Context) {
	repo, ok := m.findRepository(c)
	if !ok {
		return
	}
	if err := m.Store.DeleteReleasesForRepository(repo.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	count, err := m.runImport(c.Request.Context(), repo, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ImportResult{Imported: count})
}

// ImportRepository runs one import with notifications on.
func (m RepositoryService) ImportRepository(c *gin.Context) {
	repo, ok := m.findRepository(c)
	if !ok {
		return
	}
	count, err := m.runImport(c.Request.Context(), repo, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ImportResult{Imported: count})
}

// RenotifyRelease force-reactivates one channel for one release.
func (m RepositoryService) RenotifyRelease(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "release id must be numeric"})
		return
	}
	ch, err := models.ParseChannel(c.Param("channel"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	release, err := m.Store.GetRelease(id)
	if err != nil {
		if client.IsNotFound(err) {
			c.Status(http.StatusNotFound)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	repo, err := m.Store.GetRepositoryByID(release.RepositoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := m.Dispatcher.Renotify(c.Request.Context(), release, repo, ch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, release)
}

func (m RepositoryService) Livez(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (m RepositoryService) Readyz(c *gin.Context) {
	if err := m.Store.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, "OK")
}

func (m RepositoryService) Revisionz(c *gin.Context) {
	c.String(http.StatusOK, m.Conf.GetString("revision"))
}

func (m RepositoryService) findRepository(c *gin.Context) (*models.Repository, bool) {
	owner, name := models.SplitParam(c.Param("param"))
	repo, err := m.Store.GetRepository(owner, name)
	if err != nil {
		if client.IsNotFound(err) {
			c.Status(http.StatusNotFound)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return repo, true
}

func (m RepositoryService) runImport(ctx context.Context, repo *models.Repository, notify bool) (int, error) {
	releaseImporter, err := importer.NewReleaseImporter(repo, notify, m.Store, m.Source, m.Dispatcher)
	if err != nil {
		return 0, err
	}
	return releaseImporter.Perform(ctx)
}

func (m RepositoryService) sortedReleases(repo *models.Repository) ([]models.Release, error) {
	releases, err := m.Store.ReleasesForRepository(repo.ID)
	if err != nil {
		return nil, err
	}
	tagFilter, err := importer.NewTagFilter(repo.TagFilter)
	if err != nil {
		// stored pattern no longer compiles, keep the publish order
		return releases, nil
	}
	sort.SliceStable(releases, func(i, j int) bool {
		vi := tagFilter.Version(releases[i].TagName)
		vj := tagFilter.Version(releases[j].TagName)
		switch {
		case vi != nil && vj != nil:
			return vi.GreaterThan(vj)
		case vi != nil:
			return true
		case vj != nil:
			return false
		default:
			return releases[i].PublishedAt.After(releases[j].PublishedAt)
		}
	})
	return releases, nil
}
