package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/crateprov/crateprov/internal/cmd"
	"github.com/crateprov/crateprov/internal/flags"
)

var version = "dev" // Set at build time using -ldflags

type RootCmd struct {
	*cmd.BaseCmd
}

func Execute() error {
	logger, err := configureLogger()
	if err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}

	rootCmd, err := NewRootCmd(logger)
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

func NewRootCmd(logger hclog.Logger) (*cobra.Command, error) {
	c := &RootCmd{
		BaseCmd: &cmd.BaseCmd{},
	}
	c.SetLogger(logger)

	rootCmd := &cobra.Command{
		Use:          "crateprov <command> [args]",
		Short:        "'crateprov' checks published crates against their upstream git repositories.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      version,
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	initCmd, err := NewInitCmd(c.BaseCmd)
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(initCmd)

	inspectCmd, err := NewInspectCmd(c.BaseCmd)
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(inspectCmd)

	verifyCmd, err := NewVerifyCmd(c.BaseCmd)
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(verifyCmd)

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `The 'crateprov' CLI verifies that the contents of published crate archives
can be traced back to their declared upstream git repositories, and reports a
trust tier for each crate version it checks.`
}

func configureLogger() (hclog.Logger, error) {
	logPath := strings.TrimSpace(os.Getenv(flags.EnvVarLogPath))

	// If CRATEPROV_LOG_PATH is not set, don't log anywhere.
	logOutput := io.Discard

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file (%s): %w", logPath, err)
		}
		logOutput = f
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "crateprov",
		Level:  hclog.LevelFromString(getLogLevel()),
		Output: logOutput,
	})

	return logger, nil
}

func getLogLevel() string {
	lvl := strings.ToLower(os.Getenv(flags.EnvVarLogLevel))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return "info"
	}
}
