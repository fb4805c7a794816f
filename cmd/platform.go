package cmd

import (
	"fmt"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newReposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List the repositories the token can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := getContainer()
			if err != nil {
				return err
			}
			p, err := c.platform(cmd.Context())
			if err != nil {
				return err
			}
			repos, err := p.GetRepos(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), repos)
		},
	}
}

func newBranchStatusCmd() *cobra.Command {
	var (
		localDir string
		check    string
		useSSH   bool
	)
	cmd := &cobra.Command{
		Use:   "branch-status <repository> <branch>",
		Short: "Print the combined commit status of a branch",
		Long: `Print green, yellow or red for the head commit of a branch.

The repository is cloned into --local-dir, or an existing clone there is reused,
to find the branch head. With --check only the named status is reported.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := orchestrator.ValidatePackageName(args[0]); err != nil {
				return err
			}
			if err := orchestrator.ValidateBranchName(args[1]); err != nil {
				return err
			}
			c, err := getContainer()
			if err != nil {
				return err
			}
			p, err := c.platform(cmd.Context())
			if err != nil {
				return err
			}
			gitURL := domain.GitURLDefault
			if useSSH {
				gitURL = domain.GitURLSSH
			}
			repo, _, err := p.InitRepo(cmd.Context(), domain.RepoParams{
				Repository:     args[0],
				IgnorePrAuthor: c.cfg.IgnorePrAuthor,
				GitURL:         gitURL,
				LocalDir:       localDir,
			}, nil)
			if err != nil {
				return fmt.Errorf("failed to open repository %s: %w", args[0], err)
			}
			var status domain.BranchStatus
			if check != "" {
				status, err = repo.GetBranchStatusCheck(cmd.Context(), args[1], check)
			} else {
				status, err = repo.GetBranchStatus(cmd.Context(), args[1])
			}
			if err != nil {
				return err
			}
			if status == domain.BranchStatusNone {
				return fmt.Errorf("status check %q not found on %s", check, args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().StringVar(&localDir, "local-dir", "", "Working copy directory")
	cmd.Flags().StringVar(&check, "check", "", "Report only the named status check")
	cmd.Flags().BoolVar(&useSSH, "ssh", false, "Clone over ssh")
	_ = cmd.MarkFlagRequired("local-dir")
	return cmd
}
