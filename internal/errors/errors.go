// Package errors defines domain-level errors used throughout the application.
// These errors separate "we could not check" failures from classification
// outcomes: a failed clone or a forbidden download is never silently folded
// into a content-mismatch verdict.
package errors

import (
	"errors"
)

var (
	// ErrCrateNotFound indicates that the requested crate (or crate version) does not
	// exist on the registry. The caller asked for something that was never published.
	ErrCrateNotFound = errors.New("crate not found")

	// ErrCrateForbidden indicates that the registry refused to serve the crate archive
	// (HTTP 403). Such crates are excluded from classification entirely and reported
	// as "could not analyze" rather than as any verdict tier.
	ErrCrateForbidden = errors.New("crate download forbidden")

	// ErrRepoUnreachable indicates that the upstream repository could not be cloned
	// at all (network, auth, or a host that refuses the connection).
	ErrRepoUnreachable = errors.New("repository unreachable")

	// ErrCommitNotFound indicates that a shallow fetch pinned to a specific commit
	// failed because the commit does not exist upstream (rewritten history, stale
	// hash) or the server refused to serve it. Triggers the full-history fallback.
	ErrCommitNotFound = errors.New("commit not found upstream")

	// ErrCloneTimeout indicates that a clone attempt exceeded its deadline.
	// During a shallow clone this is recovered by falling back to a full clone;
	// during a full clone it is fatal for that crate's classification.
	ErrCloneTimeout = errors.New("clone timed out")

	// ErrMalformedMetadata indicates that sideband provenance metadata bundled in
	// the crate archive (.cargo_vcs_info.json) is present but unusable, for example
	// a revision hash that does not belong to a supported version-control system.
	ErrMalformedMetadata = errors.New("malformed provenance metadata")

	// ErrMalformedArchive indicates that the downloaded .crate file could not be
	// read as a gzipped tarball.
	ErrMalformedArchive = errors.New("malformed crate archive")

	// ErrConfigLoadFailed indicates that the configuration file could not be
	// loaded or failed validation.
	ErrConfigLoadFailed = errors.New("failed to load config")
)
