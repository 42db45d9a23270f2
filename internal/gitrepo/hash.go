package gitrepo

import (
	"bytes"

	"github.com/go-git/go-git/v5/plumbing"
)

var (
	crlf = []byte("\r\n")
	lf   = []byte("\n")
)

// BlobHashes returns the candidate git blob hashes for a file's content.
//
// The hash uses git's blob framing (object type, content length, NUL, bytes),
// so identical content hashes identically regardless of path or filename.
// Because git may normalize line endings on checkout, content containing
// `\r\n` is hashed a second time with those sequences converted to `\n`;
// a file matches if any candidate hash exists in the repository.
func BlobHashes(data []byte) []plumbing.Hash {
	hashes := []plumbing.Hash{plumbing.ComputeHash(plumbing.BlobObject, data)}
	if bytes.Contains(data, crlf) {
		normalized := bytes.ReplaceAll(data, crlf, lf)
		hashes = append(hashes, plumbing.ComputeHash(plumbing.BlobObject, normalized))
	}
	return hashes
}

// ValidRevision reports whether s looks like a full git commit hash.
// Abbreviated or non-git revision identifiers are rejected; the matcher
// treats them as unsupported metadata rather than guessing.
func ValidRevision(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
