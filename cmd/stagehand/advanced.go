package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mschirtzinger/stagehand/internal/config"
	"github.com/Mschirtzinger/stagehand/internal/dashboard"
)

var initCmd = &cobra.Command{
	Use:         "init [DIR]",
	GroupID:     "advanced",
	Short:       "Create a repository and open it",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{saveState: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = pathArg(args)
		}
		return center.Init(cmd.Context(), dir)
	},
}

var openCmd = &cobra.Command{
	Use:         "open [PATH]",
	GroupID:     "advanced",
	Short:       "Open the repository containing PATH and remember it",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{saveState: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Open(cmd.Context(), pathArg(args))
	},
}

var closeCmd = &cobra.Command{
	Use:         "close [PATH]",
	GroupID:     "advanced",
	Short:       "Close the repository owning PATH and forget it",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{saveState: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Close(cmd.Context(), pathArg(args))
	},
}

var refreshCmd = &cobra.Command{
	Use:     "refresh [PATH]",
	GroupID: "advanced",
	Short:   "Re-read the status of a repository",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.Refresh(cmd.Context(), pathArg(args))
	},
}

var reposCmd = &cobra.Command{
	Use:     "repos",
	GroupID: "advanced",
	Short:   "List open repositories",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range dashboard.Repositories(reg)() {
			branch := info.Branch
			if branch == "" {
				branch = short(info.Commit)
			}
			fmt.Printf("%s  %s  %s\n",
				render.Title.Render(info.Root),
				branch,
				render.Muted.Render(fmt.Sprintf("%d staged, %d changed, %d conflicts", info.Index, info.WorkingTree, info.Merge)))
		}
	},
}

var showOutputCmd = &cobra.Command{
	Use:     "show-output",
	GroupID: "advanced",
	Short:   "Show where the git log is written",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return center.ShowOutput(cmd.Context())
	},
}

var configCmd = &cobra.Command{
	Use:     "config [KEY [VALUE]]",
	GroupID: "advanced",
	Short:   "Show or change settings",
	Long: `Show all settings, show one, or change one.

Settings live in config.yaml under the user config directory and can be
overridden with STAGEHAND_* environment variables (dots become
underscores, e.g. STAGEHAND_DECORATIONS_ENABLED=false).

Examples:
  stagehand config
  stagehand config checkoutType
  stagehand config autofetch false`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		switch len(args) {
		case 0:
			keys := []string{
				config.KeyAutofetch, config.KeyAutofetchPeriod, config.KeyEnableSmartCommit,
				config.KeyEnableCommitSigning, config.KeyConfirmSync, config.KeyCheckoutType,
				config.KeyDecorationsEnabled, config.KeyIgnoreDebounce, config.KeyLogFile, config.KeyLogLevel,
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Printf("%s = %v\n", key, settings.Get(key))
			}
		case 1:
			fmt.Println(settings.Get(args[0]))
		default:
			if err := settings.Set(args[0], configValue(args[1])); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

// configValue turns command-line booleans into bools; everything else
// stays a string for the settings source to convert.
func configValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "on", "yes":
		return true
	case "false", "off", "no":
		return false
	}
	return s
}

func init() {
	rootCmd.AddCommand(initCmd, openCmd, closeCmd, refreshCmd, reposCmd, showOutputCmd, configCmd)
}
