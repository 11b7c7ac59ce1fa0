package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mschirtzinger/stagehand/internal/autofetch"
	"github.com/Mschirtzinger/stagehand/internal/config"
	"github.com/Mschirtzinger/stagehand/internal/dashboard"
	"github.com/Mschirtzinger/stagehand/internal/decoration"
	"github.com/Mschirtzinger/stagehand/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "advanced",
	Short:   "Keep repositories refreshed, decorated and fetched",
	Long: `Watch every open repository until interrupted.

While watching:
- file changes refresh the repository status (debounced per repository)
- decorations are recomputed and changed paths are announced
- saved .gitignore files recompute ignore decorations
- autofetch fetches periodically when the autofetch setting is on
- settings file edits take effect immediately

With --serve, changes are streamed to WebSocket clients instead of being
printed. Messages:
- hello: open repositories, sent once on connect
- decorations: decorations of some paths changed
- operation: a repository operation finished
- repository: a repository was opened or closed
- autofetch: autofetch was enabled or disabled

Examples:
  stagehand watch
  stagehand watch --serve 127.0.0.1:7878`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		serve, _ := cmd.Flags().GetString("serve")
		log := logger.Logger

		settings.Watch()

		bus := decoration.NewBus()
		manager := decoration.NewManager(reg, bus, settings,
			decoration.WithLogger(log),
			decoration.WithIgnoreDelay(settings.Duration(config.KeyIgnoreDebounce)))
		defer manager.Close()

		fetches := autofetch.Follow(reg, settings,
			autofetch.WithPeriod(settings.Duration(config.KeyAutofetchPeriod)),
			autofetch.WithLogger(log))
		defer fetches.Dispose()

		w, err := watcher.New(reg, watcher.Config{
			OnIgnoreFileSaved: manager.NotifyFileSaved,
			Logger:            log,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := w.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start watcher: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = w.Stop() }()

		if serve != "" {
			server := dashboard.NewServer(dashboard.Config{
				Addr:         serve,
				Logger:       log,
				Repositories: dashboard.Repositories(reg),
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
				os.Exit(1)
			}
			defer func() { _ = server.Stop() }()

			handler := dashboard.NewHandler(server, log)
			handler.FollowDecorations(bus)
			handler.FollowRegistry(reg)
			defer handler.Close()
			defer fetches.OnDidChange(handler.OnAutofetchChange)()

			fmt.Printf("Dashboard on http://%s\n", server.Addr())
			fmt.Printf("WebSocket endpoint: ws://%s/ws\n", server.Addr())
		} else {
			defer bus.Subscribe(func(c decoration.Change) {
				if c.All {
					fmt.Printf("%s %s\n", render.Title.Render(c.Root), render.Muted.Render("all decorations changed"))
					return
				}
				for _, uri := range c.URIs {
					d, _, _ := manager.Decoration(ctx, uri)
					fmt.Printf("%s %s\n", render.Decoration(d.Letter, d.Color, d.StrikeThrough, d.Faded), relTo(c.Root, uri))
				}
			})()
			defer fetches.OnDidChange(func(root string, enabled bool) {
				state := "disabled"
				if enabled {
					state = "enabled"
				}
				fmt.Printf("%s %s\n", render.Title.Render(root), render.Muted.Render("autofetch "+state))
			})()
		}

		fmt.Printf("Watching %d repositories. Press Ctrl+C to stop...\n", len(reg.Roots()))
		<-ctx.Done()
		fmt.Println("\nStopping...")
	},
}

func init() {
	watchCmd.Flags().String("serve", "", "Stream changes over WebSocket on this address (e.g. "+dashboard.DefaultAddr+")")
	rootCmd.AddCommand(watchCmd)
}
