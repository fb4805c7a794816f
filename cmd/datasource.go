package cmd

import (
	"fmt"

	"github.com/compozy/tgit/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var (
		registryURL string
		branch      string
		withDigest  bool
	)
	cmd := &cobra.Command{
		Use:   "lookup <package>...",
		Short: "Resolve packages and list their releases",
		Long: `Resolve each package path to its repository and list the repository tags as releases.

Failures of the Tencent Git server are retried. A package that still fails is
reported with its error and does not stop the remaining lookups.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := getContainer()
			if err != nil {
				return err
			}
			results, err := c.lookup.Execute(cmd.Context(), orchestrator.LookupConfig{
				RegistryURL: registryURL,
				Packages:    args,
				Branch:      branch,
				WithDigest:  withDigest,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&registryURL, "registry-url", "", "Registry URL (defaults to the public server)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch for the digest lookup")
	cmd.Flags().BoolVar(&withDigest, "digest", false, "Also report the head commit")
	return cmd
}

func newReleasesCmd() *cobra.Command {
	var registryURL string
	cmd := &cobra.Command{
		Use:   "releases <package>",
		Short: "List the releases of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchestrator.ValidatePackageName(args[0]); err != nil {
				return err
			}
			c, err := getContainer()
			if err != nil {
				return err
			}
			result, err := c.releases.Execute(cmd.Context(), registryURL, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&registryURL, "registry-url", "", "Registry URL (defaults to the public server)")
	return cmd
}

func newDigestCmd() *cobra.Command {
	var (
		registryURL string
		branch      string
	)
	cmd := &cobra.Command{
		Use:   "digest <package>",
		Short: "Print the head commit of a package",
		Long: `Print the latest commit of the package repository, or of --branch when given.
Nothing is printed when the repository has no commits or the branch does not exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchestrator.ValidatePackageName(args[0]); err != nil {
				return err
			}
			c, err := getContainer()
			if err != nil {
				return err
			}
			digest, err := c.digests.Execute(cmd.Context(), registryURL, args[0], branch)
			if err != nil {
				return err
			}
			if digest != "" {
				fmt.Fprintln(cmd.OutOrStdout(), digest)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&registryURL, "registry-url", "", "Registry URL (defaults to the public server)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch to read the head commit of")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var registryURL string
	cmd := &cobra.Command{
		Use:   "resolve <package>",
		Short: "Print the repository that hosts a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchestrator.ValidatePackageName(args[0]); err != nil {
				return err
			}
			c, err := getContainer()
			if err != nil {
				return err
			}
			repo, err := c.resolver.Resolve(cmd.Context(), registryURL, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), repo)
			return nil
		},
	}
	cmd.Flags().StringVar(&registryURL, "registry-url", "", "Registry URL (defaults to the public server)")
	return cmd
}
