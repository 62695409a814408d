package importer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releasewatch/releasewatch/models"
)

func TestVersionFilterMatches(t *testing.T) {
	cases := []struct {
		pattern     string
		requirement []string
		tag         string
		Expected    bool
	}{
		{`\Av(.+)\z`, []string{">7"}, "v8.0.0", true},
		{`\Av(.+)\z`, []string{">7"}, "v6.0.0", false},
		{`\Av(.+)\z`, []string{">7"}, "not-a-tag", false},
		// pattern match alone suffices without a requirement
		{`\Av(.+)\z`, nil, "vanything", true},
		{`\Av(.+)\z`, []string{}, "v6.0.0", true},
		// all requirements must hold
		{`\Av(\d+\.\d+\.\d+)\z`, []string{">1.0", "<2.0"}, "v1.5.0", true},
		{`\Av(\d+\.\d+\.\d+)\z`, []string{">1.0", "<2.0"}, "v2.5.0", false},
		// empty pattern matches everything
		{"", nil, "whatever", true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s %v on %s", tc.pattern, tc.requirement, tc.tag), func(t *testing.T) {
			filter, err := NewVersionFilter(tc.pattern, tc.requirement)
			require.NoError(t, err)
			matched, err := filter.Matches(tc.tag)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, matched)
		})
	}
}

func TestVersionFilterUnparsableTokenIsAnError(t *testing.T) {
	// a constrained repository with an unparsable matched token is a
	// configuration error, not a silent skip
	filter, err := NewVersionFilter(`\Av(.+)\z`, []string{">7"})
	require.NoError(t, err)

	matched, err := filter.Matches("vnot-a-version")
	assert.Error(t, err)
	assert.False(t, matched)
}

func TestVersionFilterBadRequirement(t *testing.T) {
	_, err := NewVersionFilter(`\Av(.+)\z`, []string{"not a requirement %"})
	assert.Error(t, err)
}

func TestVersionFilterForRepository(t *testing.T) {
	repo := &models.Repository{
		Owner:              "acme",
		Repo:               "widget",
		TagFilter:          `\Av(\d+\.\d+\.\d+)\z`,
		VersionRequirement: []string{">1.0"},
	}
	filter, err := VersionFilterForRepository(repo)
	require.NoError(t, err)

	matched, err := filter.Matches("v1.5.0")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = filter.Matches("v0.9.0")
	require.NoError(t, err)
	assert.False(t, matched)
}
