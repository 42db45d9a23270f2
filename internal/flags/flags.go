package flags

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// Env vars
	EnvVarConfigFile = "CRATEPROV_CONFIG_FILE"
	EnvVarLogPath    = "CRATEPROV_LOG_PATH"
	EnvVarLogLevel   = "CRATEPROV_LOG_LEVEL"

	// Defaults
	DefaultConfigFile = ".crateprov.toml"
	DefaultLogPath    = ""
	DefaultLogLevel   = "info"
	DefaultFormat     = "text"

	// Flag names
	FlagNameConfigFile = "config-file"
	FlagNameLogPath    = "log-path"
	FlagNameLogLevel   = "log-level"
	FlagNameFormat     = "format"
)

var (
	ConfigFile string
	LogPath    string
	LogLevel   string
	Format     string
)

func InitFlags(fs *pflag.FlagSet) {
	initConfigFile(fs)
	initLogger(fs)
	initFormat(fs)
}

func initConfigFile(fs *pflag.FlagSet) {
	if ConfigFile == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarConfigFile)); env != "" {
			ConfigFile = env
		} else {
			ConfigFile = DefaultConfigFile
		}
	}
	fs.StringVar(&ConfigFile, FlagNameConfigFile, ConfigFile, "path to config file")
}

func initLogger(fs *pflag.FlagSet) {
	if LogPath == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogPath)); env != "" {
			LogPath = env
		} else {
			LogPath = DefaultLogPath
		}
	}
	fs.StringVar(&LogPath, FlagNameLogPath, LogPath, "path to generated log file")

	if LogLevel == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogLevel)); env != "" {
			LogLevel = strings.ToLower(env)
		} else {
			LogLevel = DefaultLogLevel
		}
	}
	fs.StringVar(&LogLevel, FlagNameLogLevel, LogLevel, "log level (trace, debug, info, warn, error)")
}

func initFormat(fs *pflag.FlagSet) {
	if Format == "" {
		Format = DefaultFormat
	}
	fs.StringVar(&Format, FlagNameFormat, Format, "output format (text, json, yaml)")
}
