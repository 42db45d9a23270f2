package crates

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	errs "github.com/crateprov/crateprov/internal/errors"
)

// vcsInfoFile is the sideband metadata cargo writes into a published archive
// when the working tree was clean at publish time.
const vcsInfoFile = ".cargo_vcs_info.json"

// vcsInfoSchema constrains the metadata to what this tool can act on: a full
// git SHA-1. Revisions from unsupported version-control systems fail the
// pattern and are reported as malformed rather than guessed at.
const vcsInfoSchema = `{
  "type": "object",
  "required": ["git"],
  "properties": {
    "git": {
      "type": "object",
      "required": ["sha1"],
      "properties": {
        "sha1": {
          "type": "string",
          "pattern": "^[0-9a-f]{40}$"
        }
      }
    },
    "path_in_vcs": {
      "type": "string"
    }
  }
}`

var vcsInfoSchemaLoader = gojsonschema.NewStringLoader(vcsInfoSchema)

type vcsInfo struct {
	Git struct {
		SHA1 string `json:"sha1"`
	} `json:"git"`
	PathInVCS string `json:"path_in_vcs"`
}

func parseVCSInfo(data []byte) (*vcsInfo, error) {
	result, err := gojsonschema.Validate(vcsInfoSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedMetadata, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrMalformedMetadata, strings.Join(details, "; "))
	}

	var info vcsInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedMetadata, err)
	}

	return &info, nil
}
