package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	shadervariants "github.com/wippyai/shader-variants"
	"github.com/wippyai/shader-variants/backend/nagabackend"
	"github.com/wippyai/shader-variants/build"
	"github.com/wippyai/shader-variants/config"
	"github.com/wippyai/shader-variants/engine"
)

const appName = "shadervariants"

// errVariantsFailed is returned when the build finished but some variants or
// passes did not build.
var errVariantsFailed = stderrors.New("some variants failed")

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string

	cfg *config.Config
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:     appName,
	Short:   "Compile every keyword variant of a shader description",
	Version: shadervariants.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if flagConfig != "" {
			cfg, err = config.Load(flagConfig)
		} else {
			cfg = config.Default()
		}
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = flagLogLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = flagLogFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return setupLogging(cfg.Log, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(parseCmd, enumerateCmd, buildCmd, disasmCmd, keywordsCmd)

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func main() {
	err := rootCmd.Execute()
	log.Sync()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, errVariantsFailed):
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return 2
	default:
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		return 1
	}
}

// setupLogging builds the process logger and hands it to every package that
// logs. Quiet drops everything below error, for the interactive view.
func setupLogging(c config.Log, quiet bool) error {
	l, err := newLogger(c, quiet)
	if err != nil {
		return err
	}
	log = l
	engine.SetLogger(l)
	build.SetLogger(l)
	nagabackend.SetLogger(l)
	return nil
}
