package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Repository is a watched GitHub repository. The (owner, repo) pair is
// unique and is exposed externally as the compound key "owner:repo".
type Repository struct {
	ID                 int64          `db:"id" json:"-"`
	Owner              string         `db:"owner" json:"owner"`
	Repo               string         `db:"repo" json:"repo"`
	TagFilter          string         `db:"tag_filter" json:"tag_filter"`
	VersionRequirement pq.StringArray `db:"version_requirement" json:"version_requirement"`
	Lightweight        bool           `db:"lightweight" json:"lightweight"`
	ImportEnabled      bool           `db:"import_enabled" json:"import_enabled"`
	Channels           ChannelSet     `db:"channels" json:"configured_channels"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Param returns the unique identifier for this repository in the form
// "owner:repo".
func (r *Repository) Param() string {
	return r.Owner + ":" + r.Repo
}

// Slug returns the pair "owner/repo" that identifies the repository on
// GitHub.
func (r *Repository) Slug() string {
	return r.Owner + "/" + r.Repo
}

// SplitParam splits an "owner:repo" compound key on the first colon.
func SplitParam(param string) (owner, repo string) {
	owner, repo, _ = strings.Cut(param, ":")
	return owner, repo
}

// Release is one imported release (or, for lightweight repositories, one
// imported tag). URL is the dedup key and is unique across the store.
// Pending is written once at creation and only ever has members removed
// afterwards; Renotify is the single path that re-adds one.
type Release struct {
	ID           int64      `db:"id" json:"-"`
	RepositoryID int64      `db:"repository_id" json:"-"`
	URL          string     `db:"url" json:"url"`
	HTMLURL      string     `db:"html_url" json:"html_url"`
	Name         string     `db:"name" json:"name"`
	TagName      string     `db:"tag_name" json:"tag_name"`
	Body         string     `db:"body" json:"body"`
	PublishedAt  time.Time  `db:"published_at" json:"published_at"`
	Pending      ChannelSet `db:"pending_channels" json:"pending_channels"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Validate rejects a record that is missing any of the required fields.
// Body may be empty, everything else must be present.
func (r *Release) Validate() error {
	missing := []string{}
	if r.URL == "" {
		missing = append(missing, "url")
	}
	if r.HTMLURL == "" {
		missing = append(missing, "html_url")
	}
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.TagName == "" {
		missing = append(missing, "tag_name")
	}
	if r.PublishedAt.IsZero() {
		missing = append(missing, "published_at")
	}
	if len(missing) > 0 {
		return errors.Errorf("release %q is missing required fields: %s",
			r.TagName, strings.Join(missing, ", "))
	}
	return nil
}
