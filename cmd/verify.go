package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crateprov/crateprov/internal/cmd"
	cmdopts "github.com/crateprov/crateprov/internal/cmd/options"
	"github.com/crateprov/crateprov/internal/cmd/output"
	"github.com/crateprov/crateprov/internal/config"
	"github.com/crateprov/crateprov/internal/crates"
	"github.com/crateprov/crateprov/internal/flags"
	"github.com/crateprov/crateprov/internal/provenance"
	"github.com/crateprov/crateprov/internal/report"
	"github.com/crateprov/crateprov/internal/runner"
)

type VerifyCmd struct {
	*cmd.BaseCmd
	DumpFile  string
	RankRange string
	Workers   int
	Verbose   bool

	cfgLoader       config.Loader
	fetcherBuilder  cmdopts.FetcherBuilder
	accessorBuilder cmdopts.AccessorBuilder
}

func NewVerifyCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &VerifyCmd{
		BaseCmd:         baseCmd,
		cfgLoader:       opts.ConfigLoader,
		fetcherBuilder:  opts.FetcherBuilder,
		accessorBuilder: opts.AccessorBuilder,
	}

	cobraCmd := &cobra.Command{
		Use:   "verify",
		Short: "Checks a download-ranked slice of crates from a crates.io database dump.",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	cobraCmd.Flags().StringVar(
		&c.DumpFile,
		"dump",
		"",
		"Optional, path to the crates.io database dump (db-dump.tar.gz)",
	)

	cobraCmd.Flags().StringVar(
		&c.RankRange,
		"range",
		"0-100",
		"Download-rank slice to verify, either START-END (END exclusive) or a single rank",
	)

	cobraCmd.Flags().IntVar(
		&c.Workers,
		"workers",
		0,
		"Optional, number of concurrent verification workers",
	)

	cobraCmd.Flags().BoolVar(
		&c.Verbose,
		"verbose",
		false,
		"Optional, list the per-file match outcome for each crate",
	)

	return cobraCmd, nil
}

// longDescription returns the long version of the command description.
func (c *VerifyCmd) longDescription() string {
	return `Loads crate and version listings from a crates.io database dump, orders the
crates by all-time downloads, and verifies the latest published version of
every crate in the requested rank slice against its upstream repository.
Prints one report per crate version, followed by aggregate tier counts.`
}

func (c *VerifyCmd) run(cobraCmd *cobra.Command, _ []string) error {
	start, end, err := parseRankRange(c.RankRange)
	if err != nil {
		return err
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	dumpFile := c.DumpFile
	if dumpFile == "" {
		dumpFile = cfg.Verify.DumpFile
	}

	workers := c.Workers
	if workers == 0 {
		workers = cfg.Verify.Workers
	}

	logger := c.Logger()

	dump, err := crates.LoadDump(logger, dumpFile)
	if err != nil {
		return err
	}

	rows := dump.Range(start, end)
	if len(rows) == 0 {
		return fmt.Errorf("no crates in rank range %s (dump holds %d crates)", c.RankRange, len(dump.Crates()))
	}

	fetcher, err := c.fetcherBuilder(logger, cfg)
	if err != nil {
		return err
	}

	accessor, cleanup, err := c.accessorBuilder(logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = cleanup()
	}()

	matcher, err := provenance.NewMatcher(logger, accessor, provenance.WithCloneTimeout(cfg.CloneTimeout()))
	if err != nil {
		return err
	}

	var collector report.Collector

	// Crates published before repository metadata became conventional may
	// only record their repository in the registry listing.
	targets := make([]runner.Target, 0, len(rows))
	fallbackURLs := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Latest == "" {
			collector.Add(provenance.Report{
				Crate:   row.Name,
				Rank:    row.Rank,
				Verdict: provenance.VerdictUnanalyzed,
				Reason:  provenance.ReasonFetchFailed,
				Detail:  "dump lists no published versions",
			})
			continue
		}
		targets = append(targets, runner.Target{Name: row.Name, Version: row.Latest, Rank: row.Rank})
		if row.RepositoryURL != "" {
			fallbackURLs[row.Name] = row.RepositoryURL
		}
	}

	batch, err := runner.NewRunner(
		logger,
		fetcher,
		&fallbackClassifier{matcher: matcher, urls: fallbackURLs},
		&collector,
		runner.WithWorkers(workers),
		runner.WithCrawlDelay(cfg.CrawlDelay()),
	)
	if err != nil {
		return err
	}

	if err := batch.Run(cobraCmd.Context(), targets); err != nil {
		return err
	}

	handler, err := output.ForFormat[provenance.Report](
		flags.Format,
		cobraCmd.OutOrStdout(),
		&report.Printer{Verbose: c.Verbose},
	)
	if err != nil {
		return err
	}

	if err := handler.HandleResults(collector.Reports()...); err != nil {
		return err
	}

	if format := strings.ToLower(strings.TrimSpace(flags.Format)); format == "" || format == "text" {
		report.PrintSummary(handler.Writer(), collector.Summarize())
	}

	return nil
}

// fallbackClassifier fills in the repository URL from the dump listing when
// the crate's own manifest carries none, then delegates.
type fallbackClassifier struct {
	matcher *provenance.Matcher
	urls    map[string]string
}

func (f *fallbackClassifier) Classify(ctx context.Context, artifact *crates.Artifact) provenance.Report {
	if artifact.RepositoryURL == "" {
		artifact.RepositoryURL = f.urls[artifact.Name]
	}
	return f.matcher.Classify(ctx, artifact)
}

// parseRankRange parses "START-END" (END exclusive) or a single rank "N".
func parseRankRange(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("rank range cannot be empty")
	}

	if start, err := strconv.Atoi(s); err == nil {
		if start < 0 {
			return 0, 0, fmt.Errorf("rank cannot be negative: %d", start)
		}
		return start, start + 1, nil
	}

	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid rank range %q, expected START-END or a single rank", s)
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end %q: %w", parts[1], err)
	}

	if start < 0 || end <= start {
		return 0, 0, fmt.Errorf("invalid rank range %q, expected 0 <= START < END", s)
	}

	return start, end, nil
}
