package cmd

import (
	"fmt"
	"strings"

	"github.com/compozy/tgit/pkg/version"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version: safeValue(version.Version, "dev"),
				Commit:  safeValue(version.CommitHash, "unknown"),
				Built:   safeValue(version.BuildDate, "unknown"),
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "Version:\t%s\n", info.Version)
			fmt.Fprintf(out, "Commit:\t%s\n", info.Commit)
			fmt.Fprintf(out, "Built:\t%s\n", info.Built)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func safeValue(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
