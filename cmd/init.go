package cmd

import (
	"github.com/spf13/cobra"

	"github.com/crateprov/crateprov/internal/cmd"
	cmdopts "github.com/crateprov/crateprov/internal/cmd/options"
	"github.com/crateprov/crateprov/internal/config"
	"github.com/crateprov/crateprov/internal/flags"
)

type InitCmd struct {
	*cmd.BaseCmd
	cfgInitializer config.Initializer
}

func NewInitCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &InitCmd{
		BaseCmd:        baseCmd,
		cfgInitializer: opts.ConfigInitializer,
	}

	cobraCmd := &cobra.Command{
		Use:   "init",
		Short: "Creates a skeleton configuration file.",
		Long: `Creates a skeleton configuration file at the configured path
(see --config-file), pre-populated with the default settings.`,
		RunE: c.run,
	}

	return cobraCmd, nil
}

func (c *InitCmd) run(cobraCmd *cobra.Command, _ []string) error {
	path := flags.ConfigFile

	if err := c.cfgInitializer.Init(path); err != nil {
		return err
	}

	cobraCmd.Printf("Created %s\n", path)
	return nil
}
