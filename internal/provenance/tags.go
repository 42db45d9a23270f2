package provenance

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TagPolicy decides whether any of the tags pointing at the declared commit
// "obviously" names the crate release. This is presentation-layer reporting
// on top of the matcher's boolean tag match; swapping the policy never
// changes a verdict.
type TagPolicy func(crate, version string, tags []string) (string, bool)

// DefaultTagPolicy recognizes the common release tag spellings:
// 1.2.3, v1.2.3, name-1.2.3 and name-v1.2.3, plus any tag whose version part
// is semver-equal to the crate version (so v1.0 matches 1.0.0).
func DefaultTagPolicy(crate, version string, tags []string) (string, bool) {
	if len(tags) == 0 {
		return "", false
	}

	exact := map[string]struct{}{
		version:                {},
		"v" + version:          {},
		crate + "-" + version:  {},
		crate + "-v" + version: {},
	}
	for _, tag := range tags {
		if _, ok := exact[tag]; ok {
			return tag, true
		}
	}

	want, err := semver.NewVersion(version)
	if err != nil {
		return "", false
	}
	for _, tag := range tags {
		trimmed := strings.TrimPrefix(tag, crate+"-")
		got, err := semver.NewVersion(trimmed)
		if err != nil {
			continue
		}
		if got.Equal(want) {
			return tag, true
		}
	}

	return "", false
}
