package main

import (
	"github.com/spf13/cobra"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

var commitCmd = &cobra.Command{
	Use:     "commit",
	GroupID: "history",
	Short:   "Commit staged changes",
	Long: `Commit the staged changes of a repository.

Without staged changes you are offered to stage everything first (smart
commit); "Always" turns that into the default. Without -m the message is
asked for, prefilled with the draft kept from an undone commit.

Examples:
  stagehand commit -m "Fix typo"
  stagehand commit --all -m "Update docs"
  stagehand commit --amend`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		all, _ := cmd.Flags().GetBool("all")
		amend, _ := cmd.Flags().GetBool("amend")
		signoff, _ := cmd.Flags().GetBool("signoff")

		var opts *vcs.CommitOptions
		if all || amend || signoff {
			opts = &vcs.CommitOptions{All: all, Amend: amend, Signoff: signoff}
		}
		return center.Commit(cmd.Context(), repoPath(), message, opts)
	},
}

var undoCommitCmd = &cobra.Command{
	Use:     "undo-commit",
	GroupID: "history",
	Short:   "Undo the last commit, keeping its changes staged",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.UndoCommit(cmd.Context(), repoPath())
	},
}

var checkoutCmd = &cobra.Command{
	Use:     "checkout [REF]",
	GroupID: "history",
	Short:   "Switch to a branch, tag or commit",
	Long: `Switch to REF, or pick one from the repository's references.

The checkoutType setting (all, local, tags, remote) limits which references
are offered. Picking a remote branch checks out a local tracking branch.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Checkout(cmd.Context(), repoPath(), optional(args, 0))
	},
}

var branchCmd = &cobra.Command{
	Use:     "branch [NAME]",
	GroupID: "history",
	Short:   "Create a branch and switch to it",
	Long: `Create a branch at HEAD and switch to it.

Characters git does not allow in branch names are replaced with "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Branch(cmd.Context(), repoPath(), optional(args, 0))
	},
}

var deleteBranchCmd = &cobra.Command{
	Use:     "delete-branch [NAME]",
	GroupID: "history",
	Short:   "Delete a local branch",
	Long: `Delete a local branch. Branches that are not fully merged are deleted
only after you confirm.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.DeleteBranch(cmd.Context(), repoPath(), optional(args, 0))
	},
}

var mergeCmd = &cobra.Command{
	Use:     "merge [REF]",
	GroupID: "history",
	Short:   "Merge a branch into the current one",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Merge(cmd.Context(), repoPath(), optional(args, 0))
	},
}

var tagCmd = &cobra.Command{
	Use:     "tag [NAME]",
	GroupID: "history",
	Short:   "Create an annotated tag at HEAD",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		return center.CreateTag(cmd.Context(), repoPath(), optional(args, 0), message)
	},
}

var stashCmd = &cobra.Command{
	Use:     "stash",
	GroupID: "history",
	Short:   "Stash the changes of a repository",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		untracked, _ := cmd.Flags().GetBool("include-untracked")
		return center.Stash(cmd.Context(), repoPath(), message, untracked)
	},
}

var stashPopCmd = &cobra.Command{
	Use:     "stash-pop",
	GroupID: "history",
	Short:   "Apply and drop a stash",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if latest, _ := cmd.Flags().GetBool("latest"); latest {
			return center.StashPopLatest(cmd.Context(), repoPath())
		}
		return center.StashPop(cmd.Context(), repoPath())
	},
}

func init() {
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
	commitCmd.Flags().BoolP("all", "a", false, "Stage all tracked changes first")
	commitCmd.Flags().Bool("amend", false, "Replace the last commit")
	commitCmd.Flags().BoolP("signoff", "s", false, "Add a Signed-off-by trailer")

	tagCmd.Flags().StringP("message", "m", "", "Tag message (default: the tag name)")

	stashCmd.Flags().StringP("message", "m", "", "Stash message")
	stashCmd.Flags().BoolP("include-untracked", "u", false, "Also stash untracked files")

	stashPopCmd.Flags().Bool("latest", false, "Pop the most recent stash without asking")

	rootCmd.AddCommand(commitCmd, undoCommitCmd)
	rootCmd.AddCommand(checkoutCmd, branchCmd, deleteBranchCmd, mergeCmd, tagCmd)
	rootCmd.AddCommand(stashCmd, stashPopCmd)
}
