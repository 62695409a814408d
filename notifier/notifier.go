package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/releasewatch/releasewatch/models"
)

// Notifier is the two-operation channel contract: report whether the
// external prerequisites are present, and perform the one-shot delivery.
type Notifier interface {
	Kind() models.Channel
	Configured() bool
	Notify(ctx context.Context, release *models.Release, repo *models.Repository) error
}

// Message is the rendered notification text a channel hands to its
// transport: a one-line summary and a markdown description.
type Message struct {
	Summary     string
	Description string
}

// NewMessage renders the shared notification text for a release. The
// host setting provides the base URL for the link back to this
// application's repository page.
func NewMessage(conf *viper.Viper, release *models.Release, repo *models.Repository) Message {
	return Message{
		Summary:     summary(release, repo),
		Description: description(conf, release, repo),
	}
}

func summary(release *models.Release, repo *models.Repository) string {
	return fmt.Sprintf("New release %s %s: %s", repo.Slug(), release.TagName, release.Name)
}

func description(conf *viper.Viper, release *models.Release, repo *models.Repository) string {
	return strings.Join([]string{
		fmt.Sprintf("See the [github release page](%s) for **%s** here,", release.HTMLURL, release.TagName),
		fmt.Sprintf("Published at _%s_", release.PublishedAt.Format(time.RFC3339)),
		"",
		release.Body,
		"",
		fmt.Sprintf("See the [releasewatch URL](%s) for more information about _%s_ releases.",
			appURL(conf, repo), repo.Slug()),
	}, "\n")
}

func appURL(conf *viper.Viper, repo *models.Repository) string {
	return fmt.Sprintf("%s/repos/%s", strings.TrimRight(conf.GetString("host"), "/"), repo.Param())
}
