package importer

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/releasewatch/releasewatch/models"
)

// VersionFilter decides whether a tag should be imported: the name must
// match the tag filter and, when version requirements are configured, the
// extracted version must satisfy all of them.
type VersionFilter struct {
	tagFilter   *TagFilter
	requirement []*semver.Constraints
}

func NewVersionFilter(pattern string, requirement []string) (*VersionFilter, error) {
	tagFilter, err := NewTagFilter(pattern)
	if err != nil {
		return nil, err
	}
	filter := VersionFilter{tagFilter: tagFilter}
	for _, expr := range requirement {
		constraint, err := semver.NewConstraint(expr)
		if err != nil {
			return nil, errors.Wrapf(err, "version requirement %q not valid", expr)
		}
		filter.requirement = append(filter.requirement, constraint)
	}
	return &filter, nil
}

// VersionFilterForRepository builds the filter from a repository's
// configured tag filter and version requirement.
func VersionFilterForRepository(repo *models.Repository) (*VersionFilter, error) {
	return NewVersionFilter(repo.TagFilter, repo.VersionRequirement)
}

// Matches reports whether the tag name passes the filter. A matched tag
// whose version token cannot be strictly parsed while requirements are
// configured is a configuration error and is returned as such, not
// silently skipped.
func (f *VersionFilter) Matches(name string) (bool, error) {
	match := f.tagFilter.Match(name)
	if match == nil {
		return false, nil
	}
	if len(f.requirement) == 0 {
		return true, nil
	}

	token := versionToken(match)
	version, err := semver.StrictNewVersion(token)
	if err != nil {
		return false, errors.Wrapf(err, "tag %q matched but token %q is not a version", name, token)
	}
	for _, constraint := range f.requirement {
		if !constraint.Check(version) {
			return false, nil
		}
	}
	return true, nil
}
