package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mschirtzinger/stagehand/internal/commands"
	"github.com/Mschirtzinger/stagehand/internal/config"
	"github.com/Mschirtzinger/stagehand/internal/logging"
	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/ui"
)

// Version is set at build time.
var Version = "dev"

// Global flags.
var (
	configPath string
	logFile    string
	verbose    bool
	assumeYes  bool
	repoFlag   string
)

// Session state built before every command.
var (
	settings *config.Source
	logger   *logging.Logger
	reg      *registry.Registry
	center   *commands.CommandCenter
	render   *ui.Renderer

	active    *cobra.Command
	stateFile string
)

// saveState marks commands whose registry changes are remembered.
const saveState = "saveState"

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Stage, commit and sync git working copies",
	Long: `stagehand manages the working copies of one or more git repositories.

It stages and unstages whole files or selected line ranges, walks merge
conflicts before staging them, commits, switches and syncs branches, and
keeps file decorations and autofetch running while watching.

Repositories opened with "stagehand open" are remembered between runs. The
repository containing the working directory (or --repo) is always open.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "changes", Title: "Working Tree Changes:"},
		&cobra.Group{ID: "history", Title: "Commits And Refs:"},
		&cobra.Group{ID: "remote", Title: "Remotes:"},
		&cobra.Group{ID: "advanced", Title: "Repositories And Tools:"},
	)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: user config dir/stagehand/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Git log file (default: user cache dir/stagehand/stagehand.log)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also log to stderr")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer every prompt with its default")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "C", "", "Repository path (default: working directory)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	teardown()
	stop()

	if err != nil {
		// Failures were already shown by the command center.
		var failure *commands.Failure
		if !errors.As(err, &failure) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	active = cmd

	var err error
	settings, err = config.Load(configPath)
	if err != nil {
		return err
	}

	file := logFile
	if file == "" {
		file = settings.String(config.KeyLogFile)
	}
	logger, err = logging.New(logging.Options{
		File:    file,
		Level:   settings.String(config.KeyLogLevel),
		Verbose: verbose,
	})
	if err != nil {
		return err
	}

	reg = registry.New(
		registry.WithLogger(logger.Logger),
		registry.WithRepositoryOptions(repository.WithLogger(logger.Logger)),
	)

	stateFile = filepath.Join(filepath.Dir(settings.Path()), "repositories.toml")
	if err := reg.LoadState(cmd.Context(), stateFile); err != nil {
		logger.Warn().Err(err).Str("path", stateFile).Msg("restore repositories")
	}
	if _, err := reg.Open(cmd.Context(), repoPath()); err != nil {
		logger.Debug().Err(err).Str("path", repoPath()).Msg("no repository at working directory")
	}

	var prompt ui.Prompter
	if ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout) && !assumeYes {
		prompt = ui.NewTerminal(os.Stdout)
	} else {
		prompt = ui.NewAuto(os.Stderr)
	}
	render = ui.NewRenderer(os.Stdout)

	center = commands.New(reg, prompt, settings,
		commands.WithLogger(logger.Logger),
		commands.WithLog(logger.Path(), nil),
	)
	return nil
}

func teardown() {
	if logger == nil {
		return
	}
	if active != nil && active.Annotations[saveState] != "" {
		if err := reg.SaveState(stateFile); err != nil {
			logger.Warn().Err(err).Str("path", stateFile).Msg("save repositories")
		}
	}
	_ = logger.Close()
}

// repoPath is the path commands target when none is given.
func repoPath() string {
	if repoFlag != "" {
		if abs, err := filepath.Abs(repoFlag); err == nil {
			return abs
		}
		return repoFlag
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// pathArg returns args[0] as an absolute path, or the default repository
// path.
func pathArg(args []string) string {
	if len(args) == 0 {
		return repoPath()
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return args[0]
	}
	return abs
}

// optional returns args[i], or "" when absent.
func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
