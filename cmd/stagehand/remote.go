package main

import (
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:     "fetch",
	GroupID: "remote",
	Short:   "Fetch from all remotes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Fetch(cmd.Context(), repoPath())
	},
}

var pullCmd = &cobra.Command{
	Use:     "pull",
	GroupID: "remote",
	Short:   "Pull the upstream of the current branch",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rebase, _ := cmd.Flags().GetBool("rebase"); rebase {
			return center.PullRebase(cmd.Context(), repoPath())
		}
		return center.Pull(cmd.Context(), repoPath())
	},
}

var pullFromCmd = &cobra.Command{
	Use:     "pull-from [REMOTE [BRANCH]]",
	GroupID: "remote",
	Short:   "Pull a branch of a chosen remote",
	Args:    cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.PullFrom(cmd.Context(), repoPath(), optional(args, 0), optional(args, 1))
	},
}

var pushCmd = &cobra.Command{
	Use:     "push",
	GroupID: "remote",
	Short:   "Push the current branch",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tags, _ := cmd.Flags().GetBool("tags"); tags {
			return center.PushWithTags(cmd.Context(), repoPath())
		}
		return center.Push(cmd.Context(), repoPath())
	},
}

var pushToCmd = &cobra.Command{
	Use:     "push-to [REMOTE]",
	GroupID: "remote",
	Short:   "Push the current branch to a chosen remote",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.PushTo(cmd.Context(), repoPath(), optional(args, 0))
	},
}

var publishCmd = &cobra.Command{
	Use:     "publish",
	GroupID: "remote",
	Short:   "Push the current branch and set its upstream",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Publish(cmd.Context(), repoPath())
	},
}

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "remote",
	Short:   "Pull then push the current branch",
	Long: `Pull from and push to the upstream of the current branch.

Unless confirmSync is off you are asked first; "OK, Don't Show Again" turns
the question off.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rebase, _ := cmd.Flags().GetBool("rebase"); rebase {
			return center.SyncRebase(cmd.Context(), repoPath())
		}
		return center.Sync(cmd.Context(), repoPath())
	},
}

var syncAllCmd = &cobra.Command{
	Use:     "sync-all",
	GroupID: "remote",
	Short:   "Sync every open repository that has an upstream",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.SyncAll(cmd.Context())
	},
}

func init() {
	pullCmd.Flags().Bool("rebase", false, "Rebase instead of merging")
	pushCmd.Flags().Bool("tags", false, "Also push tags")
	syncCmd.Flags().Bool("rebase", false, "Rebase instead of merging")

	rootCmd.AddCommand(fetchCmd, pullCmd, pullFromCmd, pushCmd, pushToCmd, publishCmd, syncCmd, syncAllCmd)
}
