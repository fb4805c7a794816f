package cmd

import (
	"github.com/compozy/tgit/pkg/version"
	"github.com/spf13/cobra"
)

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:   "tgit",
	Short: "A CLI tool for Tencent Git repositories and package releases",
	Long: `tgit talks to a Tencent Git server. It resolves package paths to repositories,
lists their tags as releases, reports head commits and inspects branch statuses.`,
	Version:      version.Summary(),
	SilenceUsage: true,
}

type rootOptions struct {
	logLevel string
	verbose  bool
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.verbose, "verbose", "v", false, "Enable debug logging")
}

func Execute() error {
	return rootCmd.Execute()
}
