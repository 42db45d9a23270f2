package gitrepo

import (
	"net/url"
	"regexp"
	"strings"
)

// Some projects publish a GitHub URL that only works in a web browser
// (pointing into a subdirectory of a branch). The clone root can be derived
// by stripping the '/tree/branchname/etc' suffix.
var githubTreeRe = regexp.MustCompile(`^(https://github\.com/[\w\-_.]+/[\w\-_.]+)/tree/`)

// Normalize maps a human-facing repository URL to an address a git client can
// act on. The second return value is false when no usable address can be
// derived (empty, unparseable, or a scheme git cannot fetch over).
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if m := githubTreeRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	switch u.Scheme {
	case "http", "https", "git":
	default:
		return "", false
	}

	if u.Host == "" {
		return "", false
	}

	// Fragments and query strings are web-UI artifacts, not clone endpoints.
	u.Fragment = ""
	u.RawQuery = ""

	return strings.TrimSuffix(u.String(), "/"), true
}
