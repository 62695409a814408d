package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v82/github"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
)

// GithubClient wraps the GitHub API. Pagination is handled here so
// callers always receive the complete collection.
type GithubClient struct {
	gh *github.Client
}

// InitializeGithubClient builds the client once at startup; pass it by
// handle wherever upstream data is needed. An empty github_api_token
// falls back to anonymous access.
func InitializeGithubClient(conf *viper.Viper) (*GithubClient, error) {
	var httpClient *http.Client
	if token := conf.GetString("github_api_token"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	gh := github.NewClient(httpClient)
	if base := conf.GetString("github_base_url"); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		baseURL, err := url.Parse(base)
		if err != nil {
			return nil, errors.Wrapf(err, "github base url %q not valid", base)
		}
		gh.BaseURL = baseURL
	}
	return &GithubClient{gh: gh}, nil
}

func (client *GithubClient) ListReleases(ctx context.Context, owner, repo string) ([]*github.RepositoryRelease, error) {
	opts := &github.ListOptions{PerPage: 100}
	var all []*github.RepositoryRelease
	for {
		releases, resp, err := client.gh.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "issue listing releases for [%s/%s]", owner, repo)
		}
		all = append(all, releases...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (client *GithubClient) ListTags(ctx context.Context, owner, repo string) ([]*github.RepositoryTag, error) {
	opts := &github.ListOptions{PerPage: 100}
	var all []*github.RepositoryTag
	for {
		tags, resp, err := client.gh.Repositories.ListTags(ctx, owner, repo, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "issue listing tags for [%s/%s]", owner, repo)
		}
		all = append(all, tags...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}
