package importer

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// TagFilter matches tag names against a configured pattern and extracts a
// version token from matching ones. An empty pattern matches everything.
type TagFilter struct {
	re *regexp.Regexp
}

func NewTagFilter(pattern string) (*TagFilter, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "tag filter pattern %q not valid", pattern)
	}
	return &TagFilter{re: re}, nil
}

// NewTagFilterRegexp wraps an already compiled expression as-is.
func NewTagFilterRegexp(re *regexp.Regexp) *TagFilter {
	return &TagFilter{re: re}
}

// Match returns the match with its capture groups, or nil when the name
// does not match.
func (f *TagFilter) Match(name string) []string {
	return f.re.FindStringSubmatch(name)
}

// Version extracts the version for a tag name, or nil if the name does
// not match or the token is not a parseable version. Operators can write
// either one group capturing the whole version or several groups that get
// joined with dots.
func (f *TagFilter) Version(name string) *semver.Version {
	match := f.Match(name)
	if match == nil {
		return nil
	}
	version, err := semver.NewVersion(versionToken(match))
	if err != nil {
		return nil
	}
	return version
}

// versionToken joins the capture groups with dots; with no groups (or all
// of them empty) the whole matched substring is the token.
func versionToken(match []string) string {
	token := ""
	if len(match) > 1 {
		token = strings.Join(match[1:], ".")
	}
	if token == "" {
		token = match[0]
	}
	return token
}
