package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crateprov/crateprov/internal/cmd"
	cmdopts "github.com/crateprov/crateprov/internal/cmd/options"
	"github.com/crateprov/crateprov/internal/cmd/output"
	"github.com/crateprov/crateprov/internal/config"
	errs "github.com/crateprov/crateprov/internal/errors"
	"github.com/crateprov/crateprov/internal/flags"
	"github.com/crateprov/crateprov/internal/provenance"
	"github.com/crateprov/crateprov/internal/report"
)

type InspectCmd struct {
	*cmd.BaseCmd
	Repository string
	Verbose    bool

	cfgLoader       config.Loader
	fetcherBuilder  cmdopts.FetcherBuilder
	accessorBuilder cmdopts.AccessorBuilder
}

func NewInspectCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &InspectCmd{
		BaseCmd:         baseCmd,
		cfgLoader:       opts.ConfigLoader,
		fetcherBuilder:  opts.FetcherBuilder,
		accessorBuilder: opts.AccessorBuilder,
	}

	cobraCmd := &cobra.Command{
		Use:   "inspect <crate> <version>",
		Short: "Checks a single crate version against its upstream repository.",
		Long:  c.longDescription(),
		Args:  cobra.ExactArgs(2),
		RunE:  c.run,
	}

	cobraCmd.Flags().StringVar(
		&c.Repository,
		"repository",
		"",
		"Optional, repository URL to check against when the crate's manifest has none",
	)

	cobraCmd.Flags().BoolVar(
		&c.Verbose,
		"verbose",
		false,
		"Optional, list the per-file match outcome",
	)

	return cobraCmd, nil
}

// longDescription returns the long version of the command description.
func (c *InspectCmd) longDescription() string {
	return `Downloads the published archive for one crate version, hashes its source
files, and checks whether each file's content exists in the upstream git
repository. Prints the resulting trust tier.`
}

func (c *InspectCmd) run(cobraCmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	ver := strings.TrimSpace(args[1])
	if name == "" || ver == "" {
		return fmt.Errorf("crate and version are required and cannot be empty")
	}

	cfg, err := c.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	logger := c.Logger()

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

	handler, err := output.ForFormat[provenance.Report](
		flags.Format,
		cobraCmd.OutOrStdout(),
		&report.Printer{Verbose: c.Verbose},
	)
	if err != nil {
		return err
	}

	ctx := cobraCmd.Context()

	artifact, err := fetcher.Fetch(ctx, name, ver)
	if err != nil {
		if errors.Is(err, errs.ErrCrateForbidden) {
			return handler.HandleResult(provenance.Report{
				Crate:   name,
				Version: ver,
				Verdict: provenance.VerdictUnanalyzed,
				Reason:  provenance.ReasonCrateForbidden,
				Detail:  err.Error(),
			})
		}
		return err
	}

	if artifact.RepositoryURL == "" && c.Repository != "" {
		artifact.RepositoryURL = c.Repository
	}

	return handler.HandleResult(matcher.Classify(ctx, artifact))
}
