// Package provenance classifies published crate artifacts against their
// upstream repository history.
package provenance

// Verdict is the trust tier assigned to one artifact.
type Verdict string

const (
	// VerdictGoldStar: the declared revision resolves, a tag points at it, and
	// every matchable file exists in that commit's tree.
	VerdictGoldStar Verdict = "gold-star"

	// VerdictNeedsImprovement: all files exist somewhere in upstream history,
	// but the artifact's provenance chain is incomplete (no declared revision,
	// no tag on the declared commit, or matches found only via full history).
	VerdictNeedsImprovement Verdict = "needs-improvement"

	// VerdictLookSketchy: content is absent from upstream history, the
	// repository cannot be checked at all, or the metadata is unusable.
	VerdictLookSketchy Verdict = "looks-sketchy"

	// VerdictUnanalyzed: the artifact could not be fetched (e.g. the registry
	// refused the download). Not a trust tier; excluded from tier statistics.
	VerdictUnanalyzed Verdict = "could-not-analyze"
)

// Reason is a machine-readable code explaining a verdict, stable across
// releases so aggregate statistics never need to re-parse free text.
type Reason string

const (
	ReasonVerified             Reason = "verified"
	ReasonNoDeclaredRevision   Reason = "no-declared-revision"
	ReasonNoMatchingTag        Reason = "no-matching-tag"
	ReasonHistoryOnlyMatch     Reason = "history-only-match"
	ReasonRevisionUnresolvable Reason = "revision-unresolvable"
	ReasonFileNotFound         Reason = "file-not-found"
	ReasonRepoUnreachable      Reason = "repo-unreachable"
	ReasonCloneTimeout         Reason = "clone-timeout"
	ReasonNoMatchableContent   Reason = "no-matchable-content"
	ReasonMalformedMetadata    Reason = "malformed-metadata"
	ReasonCrateForbidden       Reason = "crate-forbidden"
	ReasonFetchFailed          Reason = "fetch-failed"
)

// FileMatch records the outcome of one file's content-hash lookup.
type FileMatch struct {
	Path  string `json:"path"  yaml:"path"`
	Found bool   `json:"found" yaml:"found"`
}

// Report is the full classification result for one artifact.
type Report struct {
	Crate   string `json:"crate"   yaml:"crate"`
	Version string `json:"version" yaml:"version"`

	// Rank is the crate's download ranking when classified from a dump listing.
	Rank int `json:"rank" yaml:"rank"`

	Verdict Verdict `json:"verdict" yaml:"verdict"`
	Reason  Reason  `json:"reason"  yaml:"reason"`

	// Detail is the human-readable explanation; Reason is the machine one.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	DeclaredRevision string `json:"declared_revision,omitempty" yaml:"declared_revision,omitempty"`

	// TagMatch reports whether any tag (of any kind) points at the declared commit.
	TagMatch bool     `json:"tag_match" yaml:"tag_match"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// VersionTag is the tag the naming heuristic recognized as the release
	// tag. Presentation only; it never moves the verdict boundary.
	VersionTag string `json:"version_tag,omitempty" yaml:"version_tag,omitempty"`

	// Broadened reports whether a full-history search was attempted,
	// whether or not the full clone succeeded.
	Broadened bool `json:"broadened" yaml:"broadened"`

	Files []FileMatch `json:"files,omitempty" yaml:"files,omitempty"`
}

// Classified reports whether the artifact received a trust tier.
func (r Report) Classified() bool {
	return r.Verdict != VerdictUnanalyzed && r.Verdict != ""
}
