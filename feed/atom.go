package feed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gorilla/feeds"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"

	"github.com/releasewatch/releasewatch/models"
)

// BuildAtom renders a repository's releases as an Atom feed, newest
// entry first per the given order. Release bodies are markdown and are
// rendered to HTML for the entry content.
func BuildAtom(host string, repo *models.Repository, releases []models.Release) (string, error) {
	selfURL := fmt.Sprintf("%s/repos/%s/atom", strings.TrimRight(host, "/"), repo.Param())

	atom := &feeds.Feed{
		Id:     selfURL,
		Title:  fmt.Sprintf("GitHub Releases of %s", repo.Param()),
		Link:   &feeds.Link{Href: selfURL, Rel: "self"},
		Author: &feeds.Author{Name: repo.Owner},
	}

	for i := range releases {
		release := &releases[i]
		if release.PublishedAt.After(atom.Updated) {
			atom.Updated = release.PublishedAt
		}
		content, err := markdownToHTML(release.Body)
		if err != nil {
			return "", err
		}
		atom.Items = append(atom.Items, &feeds.Item{
			Id:      release.URL,
			Title:   fmt.Sprintf("%s (%s)", release.Name, release.TagName),
			Link:    &feeds.Link{Href: release.HTMLURL, Rel: "alternate"},
			Updated: release.PublishedAt,
			Content: content,
		})
	}

	rendered, err := atom.ToAtom()
	if err != nil {
		return "", errors.Wrapf(err, "issue rendering atom feed for %s", repo.Param())
	}
	return rendered, nil
}

func markdownToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "issue rendering markdown body")
	}
	return buf.String(), nil
}
