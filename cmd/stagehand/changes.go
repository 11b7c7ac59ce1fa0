package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Mschirtzinger/stagehand/internal/staging"
)

var stageCmd = &cobra.Command{
	Use:     "stage PATH...",
	GroupID: "changes",
	Short:   "Stage files",
	Long: `Stage the working tree or merge changes of the given files.

Files that still contain conflict markers, and conflicts that are not about
content (deleted by one side, added by both), are staged only after you
confirm.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Stage(cmd.Context(), args)
	},
}

var stageAllCmd = &cobra.Command{
	Use:     "stage-all",
	GroupID: "changes",
	Short:   "Stage every change of a repository",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.StageAll(cmd.Context(), repoPath())
	},
}

var unstageCmd = &cobra.Command{
	Use:     "unstage PATH...",
	GroupID: "changes",
	Short:   "Unstage files",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Unstage(cmd.Context(), args)
	},
}

var unstageAllCmd = &cobra.Command{
	Use:     "unstage-all",
	GroupID: "changes",
	Short:   "Unstage every staged change of a repository",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.UnstageAll(cmd.Context(), repoPath())
	},
}

var cleanCmd = &cobra.Command{
	Use:     "clean PATH...",
	GroupID: "changes",
	Short:   "Discard working tree changes of files",
	Long: `Discard the unstaged changes of the given files after confirmation.

Untracked files are deleted. This cannot be undone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Clean(cmd.Context(), args)
	},
}

var cleanAllCmd = &cobra.Command{
	Use:     "clean-all",
	GroupID: "changes",
	Short:   "Discard every working tree change of a repository",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.CleanAll(cmd.Context(), repoPath())
	},
}

// linesCommand builds one of the selected-lines commands.
func linesCommand(use, short, long string, run func(cmd *cobra.Command, path string, sel []staging.Range) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use + " FILE --lines A-B[,C-D]",
		GroupID: "changes",
		Short:   short,
		Long:    long,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, _ := cmd.Flags().GetString("lines")
			sel, err := parseLines(spec)
			if err != nil {
				return err
			}
			return run(cmd, pathArg(args), sel)
		},
	}
	cmd.Flags().String("lines", "", "Selected lines, 1-based and inclusive (e.g. 3-7,12)")
	_ = cmd.MarkFlagRequired("lines")
	return cmd
}

var stageLinesCmd = linesCommand("stage-lines",
	"Stage the changes on selected lines",
	`Stage only the working tree changes that touch the selected lines.

The rest of the file stays unstaged. Lines are those of the working tree
version.

Example:
  stagehand stage-lines main.go --lines 10-14,30`,
	func(cmd *cobra.Command, path string, sel []staging.Range) error {
		return center.StageSelectedRanges(cmd.Context(), path, sel)
	})

var unstageLinesCmd = linesCommand("unstage-lines",
	"Unstage the changes on selected lines",
	`Unstage only the staged changes that touch the selected lines.

Lines are those of the staged version.`,
	func(cmd *cobra.Command, path string, sel []staging.Range) error {
		return center.UnstageSelectedRanges(cmd.Context(), path, sel)
	})

var revertLinesCmd = linesCommand("revert-lines",
	"Discard the changes on selected lines",
	`Discard, after confirmation, the working tree changes that touch the
selected lines. The file is rewritten in place.`,
	func(cmd *cobra.Command, path string, sel []staging.Range) error {
		return center.RevertSelectedRanges(cmd.Context(), path, sel)
	})

var changesCmd = &cobra.Command{
	Use:     "changes FILE",
	GroupID: "changes",
	Short:   "List the changed line ranges of a file",
	Long: `List the line changes of a file as git reports them: working tree against
the index, or with --cached the index against HEAD.

Ranges are 1-based and inclusive; "-" is the old side and "+" the new one.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cached, _ := cmd.Flags().GetBool("cached")
		path := pathArg(args)

		repo := reg.Get(path)
		if repo == nil {
			fmt.Fprintf(os.Stderr, "Error: no repository owns %s\n", path)
			os.Exit(1)
		}
		changes, err := repo.LineChanges(cmd.Context(), path, cached)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, c := range changes {
			fmt.Println(formatChange(c))
		}
	},
}

// formatChange renders c with 1-based, inclusive line numbers.
func formatChange(c staging.LineChange) string {
	side := func(sign string, start, end int) string {
		switch {
		case start == end:
			return fmt.Sprintf("%s%d,0", sign, start)
		case end-start == 1:
			return fmt.Sprintf("%s%d", sign, start+1)
		default:
			return fmt.Sprintf("%s%d-%d", sign, start+1, end)
		}
	}
	return side("-", c.OriginalStart, c.OriginalEnd) + " " + side("+", c.ModifiedStart, c.ModifiedEnd)
}

var ignoreCmd = &cobra.Command{
	Use:     "ignore PATH...",
	GroupID: "changes",
	Short:   "Add paths to .gitignore",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Ignore(cmd.Context(), args)
	},
}

var checkIgnoreCmd = &cobra.Command{
	Use:     "check-ignore PATH...",
	GroupID: "changes",
	Short:   "Report which paths are ignored",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ignored, err := center.CheckIgnore(cmd.Context(), args)
		if err != nil {
			return err
		}
		paths := make([]string, 0, len(ignored))
		for p := range ignored {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			mark := render.Muted.Render("tracked")
			if ignored[p] {
				mark = render.Warning.Render("ignored")
			}
			fmt.Printf("%s  %s\n", mark, p)
		}
		return nil
	},
}

func init() {
	changesCmd.Flags().Bool("cached", false, "Compare the index against HEAD")

	rootCmd.AddCommand(stageCmd, stageAllCmd, unstageCmd, unstageAllCmd, cleanCmd, cleanAllCmd)
	rootCmd.AddCommand(stageLinesCmd, unstageLinesCmd, revertLinesCmd, changesCmd)
	rootCmd.AddCommand(ignoreCmd, checkIgnoreCmd)
}
