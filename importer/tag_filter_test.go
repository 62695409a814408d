package importer

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagFilterVersion(t *testing.T) {
	cases := []struct {
		pattern  string
		tag      string
		Expected string
	}{
		{`\Av(\d+)\.(\d+)\.(\d+)\z`, "v1.2.3", "1.2.3"},
		{`\Av(\d+)\.(\d+)\.(\d+)\z`, "not-a-version", ""},
		{`\Av(\d+\.\d+\.\d+)\z`, "v10.20.30", "10.20.30"},
		{`\Av(\d+\.\d+\.\d+)\z`, "v1.2", ""},
		// no capture groups, the whole match is the version token
		{`\d+\.\d+\.\d+`, "release-4.5.6", "4.5.6"},
		// empty pattern matches anything
		{"", "2.0.0", "2.0.0"},
		{"", "random-branch-name", ""},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s on %s", tc.pattern, tc.tag), func(t *testing.T) {
			filter, err := NewTagFilter(tc.pattern)
			require.NoError(t, err)
			version := filter.Version(tc.tag)
			if tc.Expected == "" {
				assert.Nil(t, version)
			} else {
				require.NotNil(t, version)
				assert.Equal(t, tc.Expected, version.String())
			}
		})
	}
}

func TestTagFilterMatch(t *testing.T) {
	filter, err := NewTagFilter(`\Av(\d+)\.(\d+)\.(\d+)\z`)
	require.NoError(t, err)

	match := filter.Match("v1.2.3")
	require.NotNil(t, match)
	assert.Equal(t, []string{"v1.2.3", "1", "2", "3"}, match)

	assert.Nil(t, filter.Match("v1.2.3-rc1"))
}

func TestTagFilterBadPattern(t *testing.T) {
	_, err := NewTagFilter(`v(\d+`)
	assert.Error(t, err)
}

func TestTagFilterRegexpUsedAsIs(t *testing.T) {
	re := regexp.MustCompile(`\Arelease-(\d+\.\d+\.\d+)\z`)
	filter := NewTagFilterRegexp(re)
	version := filter.Version("release-3.1.4")
	require.NotNil(t, version)
	assert.Equal(t, "3.1.4", version.String())
}
