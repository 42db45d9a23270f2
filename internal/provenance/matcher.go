package provenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-hclog"

	"github.com/crateprov/crateprov/internal/crates"
	errs "github.com/crateprov/crateprov/internal/errors"
	"github.com/crateprov/crateprov/internal/gitrepo"
)

// Matcher classifies artifacts against upstream repository history.
// It performs no I/O itself beyond issuing clone and hash-lookup queries
// through the accessor.
//
// NewMatcher should be used to create instances of Matcher.
type Matcher struct {
	logger       hclog.Logger
	accessor     gitrepo.Accessor
	cloneTimeout time.Duration
	tagPolicy    TagPolicy
}

// NewMatcher creates a matcher over the given repository accessor.
func NewMatcher(logger hclog.Logger, accessor gitrepo.Accessor, opts ...MatcherOption) (*Matcher, error) {
	options, err := NewMatcherOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Matcher{
		logger:       logger.Named("matcher"),
		accessor:     accessor,
		cloneTimeout: options.cloneTimeout,
		tagPolicy:    options.tagPolicy,
	}, nil
}

// Classify determines whether the artifact's file contents are present in
// its upstream repository history and assigns a trust tier.
//
// The search is content-based, not tree-based: each file is matched by its
// git blob hash, so files relocated between the repository root and a
// sub-crate directory still resolve. A miss against the declared commit is
// never final until a full-history search has been attempted (or itself
// failed in a way the report distinguishes from a content mismatch).
func (m *Matcher) Classify(ctx context.Context, artifact *crates.Artifact) Report {
	logger := m.logger.With("crate", artifact.Name, "version", artifact.Version)

	report := Report{
		Crate:            artifact.Name,
		Version:          artifact.Version,
		DeclaredRevision: artifact.DeclaredRevision,
	}

	// An artifact with nothing to match is inconclusive, never verified.
	if len(artifact.Files) == 0 {
		return sketchy(report, ReasonNoMatchableContent, "artifact contains no matchable files")
	}

	if artifact.MetadataIssue != "" {
		return sketchy(report, ReasonMalformedMetadata, artifact.MetadataIssue)
	}

	url, ok := m.accessor.Normalize(artifact.RepositoryURL)
	if !ok {
		return sketchy(report, ReasonRepoUnreachable,
			fmt.Sprintf("no usable clone endpoint in %q", artifact.RepositoryURL))
	}

	if artifact.DeclaredRevision != "" && !gitrepo.ValidRevision(artifact.DeclaredRevision) {
		return sketchy(report, ReasonMalformedMetadata,
			fmt.Sprintf("unrecognized revision format %q", artifact.DeclaredRevision))
	}

	// Candidate hashes are computed once per file and reused across the
	// shallow and full-history passes.
	hashes := make([][]plumbing.Hash, len(artifact.Files))
	for i, f := range artifact.Files {
		hashes[i] = gitrepo.BlobHashes(f.Data)
	}
	found := make([]bool, len(artifact.Files))

	var (
		revisionUnresolvable bool
		pinnedComplete       bool
	)

	if artifact.DeclaredRevision != "" {
		commit := plumbing.NewHash(artifact.DeclaredRevision)

		repo, err := m.shallowClone(ctx, url, commit)
		if err != nil {
			// The claimed publish point may never have existed in public
			// history; that alone caps the verdict, but the file search
			// still broadens before concluding anything about content.
			logger.Warn("Declared revision unresolvable", "revision", artifact.DeclaredRevision, "error", err)
			revisionUnresolvable = true
		} else {
			tags, terr := repo.TagsAt(commit)
			if terr != nil {
				logger.Warn("Failed to read tags", "error", terr)
			}
			report.Tags = tags
			report.TagMatch = len(tags) > 0
			if tag, ok := m.tagPolicy(artifact.Name, artifact.Version, tags); ok {
				report.VersionTag = tag
			}

			pinnedComplete = true
			for i := range artifact.Files {
				found[i] = hasAny(repo, hashes[i])
				if !found[i] {
					pinnedComplete = false
				}
			}
			_ = repo.Close()

			logger.Debug("Checked pinned commit",
				"tags", len(tags), "complete", pinnedComplete)
		}
	}

	if artifact.DeclaredRevision == "" || revisionUnresolvable || !pinnedComplete {
		// The flag records the attempt, so a failed full clone is still
		// distinguishable from a verdict reached without broadening.
		report.Broadened = true

		repo, err := m.fullClone(ctx, url)
		if err != nil {
			// "We could not check" must stay distinguishable from
			// "we checked and the content is absent".
			report.Files = fileMatches(artifact.Files, found)
			reason := ReasonRepoUnreachable
			if errors.Is(err, errs.ErrCloneTimeout) {
				reason = ReasonCloneTimeout
			}
			return sketchy(report, reason, err.Error())
		}

		for i := range artifact.Files {
			if !found[i] {
				found[i] = hasAny(repo, hashes[i])
			}
		}
		_ = repo.Close()
	}

	report.Files = fileMatches(artifact.Files, found)

	var missing []string
	for i, ok := range found {
		if !ok {
			missing = append(missing, artifact.Files[i].Path)
		}
	}

	switch {
	case len(missing) > 0:
		return sketchy(report, ReasonFileNotFound,
			fmt.Sprintf("files absent from upstream history: %s", strings.Join(missing, ", ")))

	case revisionUnresolvable:
		return sketchy(report, ReasonRevisionUnresolvable,
			fmt.Sprintf("declared revision %s not found upstream", artifact.DeclaredRevision))

	case artifact.DeclaredRevision != "" && report.TagMatch && pinnedComplete:
		report.Verdict = VerdictGoldStar
		report.Reason = ReasonVerified
		return report

	case artifact.DeclaredRevision == "":
		report.Verdict = VerdictNeedsImprovement
		report.Reason = ReasonNoDeclaredRevision
		report.Detail = "published without embedded revision metadata"
		return report

	case !report.TagMatch:
		report.Verdict = VerdictNeedsImprovement
		report.Reason = ReasonNoMatchingTag
		report.Detail = "no tag points at the declared revision"
		return report

	default:
		report.Verdict = VerdictNeedsImprovement
		report.Reason = ReasonHistoryOnlyMatch
		report.Detail = "content found in history but not in the declared commit's tree"
		return report
	}
}

func (m *Matcher) shallowClone(ctx context.Context, url string, commit plumbing.Hash) (gitrepo.Repo, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cloneTimeout)
	defer cancel()

	return m.accessor.ShallowClone(ctx, url, commit)
}

func (m *Matcher) fullClone(ctx context.Context, url string) (gitrepo.Repo, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cloneTimeout)
	defer cancel()

	return m.accessor.FullClone(ctx, url)
}

func hasAny(repo gitrepo.Repo, candidates []plumbing.Hash) bool {
	for _, h := range candidates {
		if repo.HasBlob(h) {
			return true
		}
	}
	return false
}

func fileMatches(files []crates.File, found []bool) []FileMatch {
	matches := make([]FileMatch, len(files))
	for i, f := range files {
		matches[i] = FileMatch{Path: f.Path, Found: found[i]}
	}
	return matches
}

func sketchy(r Report, reason Reason, detail string) Report {
	r.Verdict = VerdictLookSketchy
	r.Reason = reason
	r.Detail = detail
	return r
}

// MatcherOption defines a functional option for configuring Matcher.
type MatcherOption func(*MatcherOptions) error

// MatcherOptions contains optional configuration for the matcher.
type MatcherOptions struct {
	cloneTimeout time.Duration
	tagPolicy    TagPolicy
}

func NewMatcherOptions(opts ...MatcherOption) (MatcherOptions, error) {
	// Default options.
	o := MatcherOptions{
		cloneTimeout: 2 * time.Minute,
		tagPolicy:    DefaultTagPolicy,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return MatcherOptions{}, err
		}
	}

	return o, nil
}

// WithCloneTimeout bounds each individual clone attempt.
func WithCloneTimeout(d time.Duration) MatcherOption {
	return func(o *MatcherOptions) error {
		if d <= 0 {
			return fmt.Errorf("clone timeout must be positive, got %v", d)
		}
		o.cloneTimeout = d
		return nil
	}
}

// WithTagPolicy replaces the release-tag naming heuristic.
func WithTagPolicy(p TagPolicy) MatcherOption {
	return func(o *MatcherOptions) error {
		if p == nil {
			return fmt.Errorf("tag policy cannot be nil")
		}
		o.tagPolicy = p
		return nil
	}
}
