package notifier

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/releasewatch/releasewatch/models"
)

func TestNewMessage(t *testing.T) {
	conf := viper.New()
	conf.Set("host", "https://releases.example.com/")

	repo := &models.Repository{Owner: "acme", Repo: "widget"}
	release := &models.Release{
		HTMLURL:     "https://github.com/acme/widget/releases/tag/v1.5.0",
		Name:        "one five",
		TagName:     "v1.5.0",
		Body:        "Bugfixes and polish.",
		PublishedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	msg := NewMessage(conf, release, repo)

	assert.Equal(t, "New release acme/widget v1.5.0: one five", msg.Summary)
	assert.Equal(t,
		"See the [github release page](https://github.com/acme/widget/releases/tag/v1.5.0) for **v1.5.0** here,\n"+
			"Published at _2026-05-01T12:00:00Z_\n"+
			"\n"+
			"Bugfixes and polish.\n"+
			"\n"+
			"See the [releasewatch URL](https://releases.example.com/repos/acme:widget) for more information about _acme/widget_ releases.",
		msg.Description)
}

func TestAppURLTrimsTrailingSlash(t *testing.T) {
	conf := viper.New()
	conf.Set("host", "http://localhost:8080")

	repo := &models.Repository{Owner: "acme", Repo: "widget"}
	assert.Equal(t, "http://localhost:8080/repos/acme:widget", appURL(conf, repo))
}
