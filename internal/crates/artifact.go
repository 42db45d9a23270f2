// Package crates fetches published crate archives and extracts the content
// relevant to provenance matching.
package crates

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/crateprov/crateprov/internal/errors"
)

// File is one matchable source file from a crate archive.
type File struct {
	// Path is relative to the archive root (the name-version directory).
	Path string `json:"path" yaml:"path"`

	// Data is the raw byte content.
	Data []byte `json:"-" yaml:"-"`
}

// Artifact is a published crate archive, immutable once fetched.
type Artifact struct {
	Name    string `json:"name"    yaml:"name"`
	Version string `json:"version" yaml:"version"`

	// Files are the source files passing the extension filter, in archive order.
	Files []File `json:"files" yaml:"files"`

	// DeclaredRevision is the commit hash embedded by the publishing tool,
	// empty when the crate was published from an unclean working tree.
	DeclaredRevision string `json:"declared_revision,omitempty" yaml:"declared_revision,omitempty"`

	// PathInVCS is the crate's subdirectory within its repository, when declared.
	PathInVCS string `json:"path_in_vcs,omitempty" yaml:"path_in_vcs,omitempty"`

	// RepositoryURL comes from the crate manifest; may be malformed or absent.
	RepositoryURL string `json:"repository_url,omitempty" yaml:"repository_url,omitempty"`

	// MetadataIssue is non-empty when sideband metadata was present but
	// unusable. It is never silently dropped: the matcher surfaces it.
	MetadataIssue string `json:"metadata_issue,omitempty" yaml:"metadata_issue,omitempty"`
}

// manifest is the subset of Cargo.toml the verifier cares about.
type manifest struct {
	Package struct {
		Repository string `toml:"repository"`
	} `toml:"package"`
}

const manifestFile = "Cargo.toml"

// ParseArchive reads a .crate archive (gzipped tarball) and extracts the
// matchable files, the embedded VCS metadata, and the manifest repository URL.
// Only files whose extension is in extensions participate in matching.
func ParseArchive(data []byte, name, version string, extensions []string) (*Artifact, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedArchive, err)
	}
	defer func() {
		_ = gz.Close()
	}()

	artifact := &Artifact{
		Name:    name,
		Version: version,
	}

	// Archive members live under a single name-version directory.
	prefix := name + "-" + version + "/"

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrMalformedArchive, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel := strings.TrimPrefix(hdr.Name, prefix)

		switch {
		case rel == vcsInfoFile:
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errs.ErrMalformedArchive, err)
			}
			info, err := parseVCSInfo(content)
			if err != nil {
				artifact.MetadataIssue = err.Error()
				continue
			}
			artifact.DeclaredRevision = info.Git.SHA1
			artifact.PathInVCS = info.PathInVCS

		case rel == manifestFile:
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errs.ErrMalformedArchive, err)
			}
			var m manifest
			if err := toml.Unmarshal(content, &m); err != nil {
				artifact.MetadataIssue = fmt.Sprintf("unparseable manifest: %v", err)
				continue
			}
			artifact.RepositoryURL = strings.TrimSpace(m.Package.Repository)

		case matchesExtension(rel, extensions):
			content, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errs.ErrMalformedArchive, err)
			}
			artifact.Files = append(artifact.Files, File{Path: rel, Data: content})
		}
	}

	return artifact, nil
}

func matchesExtension(name string, extensions []string) bool {
	ext := path.Ext(name)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
