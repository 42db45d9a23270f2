package crates

import (
	"archive/tar"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-hclog"
)

// CrateRow is one crate from the registry database dump, annotated with its
// download ranking and resolved latest version.
type CrateRow struct {
	// Rank is the crate's position ordered by downloads descending, starting at 0.
	Rank int `json:"rank" yaml:"rank"`

	Downloads     int64  `json:"downloads"  yaml:"downloads"`
	ID            int64  `json:"id"         yaml:"id"`
	Name          string `json:"name"       yaml:"name"`
	RepositoryURL string `json:"repository" yaml:"repository"`

	// Latest is the highest published version by semantic-version ordering.
	Latest string `json:"latest" yaml:"latest"`
}

// Dump is a parsed crates.io database dump (https://static.crates.io/db-dump.tar.gz).
type Dump struct {
	crates []CrateRow
	byName map[string]int
}

// crates.csv:
//     0           1          2             3        4      5       6          7     8        9         10
// created_at,description,documentation,downloads,homepage,id,max_upload_size,name,readme,repository,updated_at
const (
	cratesColDownloads  = 3
	cratesColID         = 5
	cratesColName       = 7
	cratesColRepository = 9
)

// versions.csv:
//     0         1          2         3         4     5    6     7      8            9        10
// crate_id,crate_size,created_at,downloads,features,id,license,num,published_by,updated_at,yanked
const (
	versionsColCrateID = 0
	versionsColNum     = 7
)

// LoadDump reads the crate and version listings out of a db-dump tarball.
func LoadDump(logger hclog.Logger, path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database dump (%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read database dump (%s): %w", path, err)
	}
	defer func() {
		_ = gz.Close()
	}()

	logger = logger.Named("dump")

	var (
		crates   []CrateRow
		versions map[int64][]string
	)

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read database dump (%s): %w", path, err)
		}

		switch {
		case strings.HasSuffix(hdr.Name, "crates.csv"):
			logger.Debug("Loading crate listing", "member", hdr.Name)
			crates, err = parseCrates(tr)
			if err != nil {
				return nil, err
			}
		case strings.HasSuffix(hdr.Name, "versions.csv"):
			logger.Debug("Loading version listing", "member", hdr.Name)
			versions, err = parseVersions(tr)
			if err != nil {
				return nil, err
			}
		}
	}

	if crates == nil {
		return nil, fmt.Errorf("database dump has no crates.csv (%s)", path)
	}
	if versions == nil {
		return nil, fmt.Errorf("database dump has no versions.csv (%s)", path)
	}

	// Most popular crates first.
	sort.SliceStable(crates, func(i, j int) bool {
		if crates[i].Downloads != crates[j].Downloads {
			return crates[i].Downloads > crates[j].Downloads
		}
		return crates[i].Name < crates[j].Name
	})

	byName := make(map[string]int, len(crates))
	for i := range crates {
		crates[i].Rank = i
		crates[i].Latest = LatestVersion(versions[crates[i].ID])
		byName[crates[i].Name] = i
	}

	logger.Debug("Loaded database dump", "crates", len(crates))

	return &Dump{crates: crates, byName: byName}, nil
}

// Crates returns all crates ordered by rank.
func (d *Dump) Crates() []CrateRow {
	return d.crates
}

// ByName looks a crate up by its exact name.
func (d *Dump) ByName(name string) (CrateRow, bool) {
	i, ok := d.byName[name]
	if !ok {
		return CrateRow{}, false
	}
	return d.crates[i], true
}

// Range returns crates with rank in [start, end), clamped to the listing.
func (d *Dump) Range(start, end int) []CrateRow {
	if start < 0 {
		start = 0
	}
	if end > len(d.crates) {
		end = len(d.crates)
	}
	if start >= end {
		return nil
	}
	return d.crates[start:end]
}

func parseCrates(r io.Reader) ([]CrateRow, error) {
	data := csv.NewReader(r)

	header, err := data.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read crates.csv header: %w", err)
	}
	if err := checkColumns(header, map[int]string{
		cratesColDownloads:  "downloads",
		cratesColID:         "id",
		cratesColName:       "name",
		cratesColRepository: "repository",
	}); err != nil {
		return nil, fmt.Errorf("unexpected crates.csv layout: %w", err)
	}

	var crates []CrateRow
	for {
		row, err := data.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read crates.csv row: %w", err)
		}

		downloads, _ := strconv.ParseInt(row[cratesColDownloads], 10, 64)
		id, err := strconv.ParseInt(row[cratesColID], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("crates.csv row has non-numeric id %q: %w", row[cratesColID], err)
		}

		crates = append(crates, CrateRow{
			Downloads:     downloads,
			ID:            id,
			Name:          row[cratesColName],
			RepositoryURL: row[cratesColRepository],
		})
	}

	return crates, nil
}

func parseVersions(r io.Reader) (map[int64][]string, error) {
	data := csv.NewReader(r)

	header, err := data.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read versions.csv header: %w", err)
	}
	if err := checkColumns(header, map[int]string{
		versionsColCrateID: "crate_id",
		versionsColNum:     "num",
	}); err != nil {
		return nil, fmt.Errorf("unexpected versions.csv layout: %w", err)
	}

	versions := make(map[int64][]string)
	for {
		row, err := data.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read versions.csv row: %w", err)
		}

		id, err := strconv.ParseInt(row[versionsColCrateID], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("versions.csv row has non-numeric crate_id %q: %w", row[versionsColCrateID], err)
		}

		versions[id] = append(versions[id], row[versionsColNum])
	}

	return versions, nil
}

func checkColumns(header []string, want map[int]string) error {
	for idx, name := range want {
		if idx >= len(header) {
			return fmt.Errorf("missing column %q at index %d", name, idx)
		}
		if header[idx] != name {
			return fmt.Errorf("column %d is %q, want %q", idx, header[idx], name)
		}
	}
	return nil
}

// versionPlaceholder orders version strings that do not parse as semver.
// The original string is still reported, the placeholder only affects sorting.
var versionPlaceholder = semver.MustParse("0.0.0")

// LatestVersion returns the highest version string by semantic-version
// ordering. Unparseable versions sort as 0.0.0.
func LatestVersion(versions []string) string {
	if len(versions) == 0 {
		return ""
	}

	type entry struct {
		parsed *semver.Version
		raw    string
	}

	entries := make([]entry, 0, len(versions))
	for _, raw := range versions {
		parsed, err := semver.StrictNewVersion(raw)
		if err != nil {
			parsed = versionPlaceholder
		}
		entries = append(entries, entry{parsed: parsed, raw: raw})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].parsed.Compare(entries[j].parsed); c != 0 {
			return c > 0
		}
		return entries[i].raw > entries[j].raw
	})

	return entries[0].raw
}
