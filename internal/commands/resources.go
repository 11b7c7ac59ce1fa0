package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// resources looks paths up in the given groups of their owning
// repositories. Paths without an owner or without a matching resource are
// skipped.
func (c *CommandCenter) resources(paths []string, groups ...repository.GroupType) []repository.Resource {
	var out []repository.Resource
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("skipping path")
			continue
		}
		repo := c.reg.Get(abs)
		if repo == nil {
			c.log.Warn().Str("path", abs).Msg("no repository owns path, skipping")
			continue
		}
		all := repo.Groups()
		for _, g := range groups {
			if r, ok := all.Find(g, abs); ok {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func uris(resources []repository.Resource) []string {
	out := make([]string, len(resources))
	for i, r := range resources {
		out[i] = r.ResourceURI()
	}
	return out
}

func filterGroup(resources []repository.Resource, group repository.GroupType) []repository.Resource {
	var out []repository.Resource
	for _, r := range resources {
		if r.Group == group {
			out = append(out, r)
		}
	}
	return out
}

func base(r repository.Resource) string {
	return filepath.Base(r.ResourceURI())
}

// Stage stages working tree and merge resources at paths. Merge resources
// that still carry conflict markers, or whose conflict is not a content
// conflict, are only staged after confirmation.
func (c *CommandCenter) Stage(ctx context.Context, paths []string) error {
	return c.exec(ctx, "stage", func(ctx context.Context) error {
		selection := c.resources(paths, repository.GroupWorkingTree, repository.GroupMerge)

		class, err := c.conflicts.Classify(ctx, selection)
		if err != nil {
			return err
		}

		if n := len(class.Unresolved); n > 0 {
			message := fmt.Sprintf("Are you sure you want to stage %s with merge conflicts?", base(class.Unresolved[0]))
			if n > 1 {
				message = fmt.Sprintf("Are you sure you want to stage %d files with merge conflicts?", n)
			}
			ok, err := c.confirm(ctx, message, "Yes")
			if err != nil || !ok {
				return err
			}
		}

		targets := filterGroup(selection, repository.GroupWorkingTree)
		targets = append(targets, class.Resolved...)
		targets = append(targets, class.Unresolved...)
		if len(targets) == 0 {
			return nil
		}

		return c.router.Run(ctx, uris(targets), func(ctx context.Context, repo *repository.Repository, paths []string) error {
			return repo.Add(ctx, paths)
		})
	})
}

// StageAll stages every change of the repository owning path, confirming
// first when there are merge conflicts.
func (c *CommandCenter) StageAll(ctx context.Context, path string) error {
	return c.withRepo(ctx, "stageAll", path, func(ctx context.Context, repo *repository.Repository) error {
		merge := repo.Groups().Merge
		if n := len(merge); n > 0 {
			message := fmt.Sprintf("Are you sure you want to stage %s with merge conflicts?", base(merge[0]))
			if n > 1 {
				message = fmt.Sprintf("Are you sure you want to stage %d files with merge conflicts?", n)
			}
			ok, err := c.confirm(ctx, message, "Yes")
			if err != nil || !ok {
				return err
			}
		}
		return repo.Add(ctx, nil)
	})
}

// Unstage moves index resources at paths back to the working tree.
func (c *CommandCenter) Unstage(ctx context.Context, paths []string) error {
	return c.exec(ctx, "unstage", func(ctx context.Context) error {
		selection := c.resources(paths, repository.GroupIndex)
		if len(selection) == 0 {
			return nil
		}
		return c.router.Run(ctx, uris(selection), func(ctx context.Context, repo *repository.Repository, paths []string) error {
			return repo.Revert(ctx, paths)
		})
	})
}

// UnstageAll unstages everything in the repository owning path.
func (c *CommandCenter) UnstageAll(ctx context.Context, path string) error {
	return c.withRepo(ctx, "unstageAll", path, func(ctx context.Context, repo *repository.Repository) error {
		return repo.Revert(ctx, nil)
	})
}

// Clean discards the working tree changes at paths after confirmation.
// Untracked files are deleted.
func (c *CommandCenter) Clean(ctx context.Context, paths []string) error {
	return c.exec(ctx, "clean", func(ctx context.Context) error {
		selection := c.resources(paths, repository.GroupWorkingTree)
		if len(selection) == 0 {
			return nil
		}

		untracked := 0
		for _, r := range selection {
			if r.Status == repository.Untracked {
				untracked++
			}
		}

		var message string
		yes := "Discard Changes"
		switch {
		case len(selection) == 1 && untracked > 0:
			message = fmt.Sprintf("Are you sure you want to DELETE %s?", base(selection[0]))
			yes = "Delete file"
		case len(selection) == 1:
			message = fmt.Sprintf("Are you sure you want to discard changes in %s?", base(selection[0]))
		default:
			message = fmt.Sprintf("Are you sure you want to discard changes in %d files?", len(selection))
			if untracked > 0 {
				message += fmt.Sprintf("\n\nThis will DELETE %d untracked files!", untracked)
			}
		}

		ok, err := c.confirm(ctx, message, yes)
		if err != nil || !ok {
			return err
		}

		return c.router.Run(ctx, uris(selection), func(ctx context.Context, repo *repository.Repository, paths []string) error {
			return repo.Clean(ctx, paths)
		})
	})
}

// CleanAll discards every working tree change of the repository owning
// path. With both tracked and untracked changes the user may restrict the
// discard to tracked files.
func (c *CommandCenter) CleanAll(ctx context.Context, path string) error {
	return c.withRepo(ctx, "cleanAll", path, func(ctx context.Context, repo *repository.Repository) error {
		resources := repo.Groups().WorkingTree
		if len(resources) == 0 {
			return nil
		}

		var tracked, untracked []repository.Resource
		for _, r := range resources {
			if r.Status == repository.Untracked || r.Status == repository.Ignored {
				untracked = append(untracked, r)
			} else {
				tracked = append(tracked, r)
			}
		}

		var message string
		var choices []string
		switch {
		case len(untracked) == 0 && len(resources) == 1:
			message = fmt.Sprintf("Are you sure you want to discard changes in %s?", base(resources[0]))
			choices = append(choices, "Discard Changes")
		case len(untracked) == 0:
			message = fmt.Sprintf("Are you sure you want to discard ALL changes in %d files?", len(resources))
			choices = append(choices, fmt.Sprintf("Discard All %d Files", len(resources)))
		case len(resources) == 1:
			message = fmt.Sprintf("Are you sure you want to DELETE %s?", base(resources[0]))
			choices = append(choices, "Delete file")
		case len(tracked) == 0:
			message = fmt.Sprintf("Are you sure you want to DELETE %d files?", len(resources))
			choices = append(choices, "Delete Files")
		default:
			untrackedMessage := fmt.Sprintf("There are %d untracked files which will be DELETED FROM DISK if discarded.", len(untracked))
			if len(untracked) == 1 {
				untrackedMessage = fmt.Sprintf("There is an untracked file, %s, which will be DELETED FROM DISK if discarded.", base(untracked[0]))
			}
			message = fmt.Sprintf("%s\n\nThis is IRREVERSIBLE, your current working set of %d files will be FOREVER LOST.", untrackedMessage, len(resources))
			yesTracked := fmt.Sprintf("Discard %d Tracked Files", len(tracked))
			if len(tracked) == 1 {
				yesTracked = "Discard 1 Tracked File"
			}
			choices = append(choices, yesTracked, fmt.Sprintf("Discard All %d Files", len(resources)))
		}

		choice, err := c.prompt.Warn(ctx, message, choices...)
		if err != nil {
			return err
		}
		switch choice {
		case choices[len(choices)-1]:
		case choices[0]:
			resources = tracked
		default:
			return nil
		}

		return repo.Clean(ctx, uris(resources))
	})
}

// Ignore appends paths to the .gitignore of their owning repositories.
func (c *CommandCenter) Ignore(ctx context.Context, paths []string) error {
	return c.exec(ctx, "ignore", func(ctx context.Context) error {
		abs, err := absPaths(paths)
		if err != nil || len(abs) == 0 {
			return err
		}
		return c.router.Run(ctx, abs, func(ctx context.Context, repo *repository.Repository, paths []string) error {
			return repo.Ignore(ctx, paths)
		})
	})
}

// CheckIgnore reports, for every path with an owning repository, whether
// it is ignored.
func (c *CommandCenter) CheckIgnore(ctx context.Context, paths []string) (map[string]bool, error) {
	out := make(map[string]bool)
	var mu sync.Mutex

	err := c.exec(ctx, "checkIgnore", func(ctx context.Context) error {
		abs, err := absPaths(paths)
		if err != nil || len(abs) == 0 {
			return err
		}
		return c.router.Run(ctx, abs, func(ctx context.Context, repo *repository.Repository, paths []string) error {
			ignored, err := repo.CheckIgnore(ctx, paths)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range paths {
				_, ok := ignored[p]
				out[p] = ok
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
