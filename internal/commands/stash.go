package commands

import (
	"context"
	"fmt"

	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/ui"
)

// Stash stashes the working tree changes of the repository owning path.
// The optional message is asked for when empty.
func (c *CommandCenter) Stash(ctx context.Context, path, message string, includeUntracked bool) error {
	return c.withRepo(ctx, "stash", path, func(ctx context.Context, repo *repository.Repository) error {
		groups := repo.Groups()
		if len(groups.WorkingTree) == 0 && len(groups.Index) == 0 {
			_, err := c.prompt.Info(ctx, "There are no changes to stash.")
			return err
		}

		if message == "" {
			m, err := c.prompt.Input(ctx, ui.InputOptions{
				Title:       "Optionally provide a stash message",
				Placeholder: "Stash message",
			})
			if err != nil {
				return err
			}
			message = m
		}
		return repo.CreateStash(ctx, message, includeUntracked)
	})
}

// StashPop asks for a stash and pops it.
func (c *CommandCenter) StashPop(ctx context.Context, path string) error {
	return c.withRepo(ctx, "stashPop", path, func(ctx context.Context, repo *repository.Repository) error {
		stashes, err := repo.GetStashes(ctx)
		if err != nil {
			return err
		}
		if len(stashes) == 0 {
			_, err := c.prompt.Info(ctx, "There are no stashes in the repository.")
			return err
		}

		items := make([]ui.Item, len(stashes))
		for i, s := range stashes {
			items[i] = ui.Item{Label: fmt.Sprintf("#%d:  %s", s.Index, s.Description), Value: fmt.Sprint(s.Index)}
		}
		item, err := c.prompt.Pick(ctx, "Pick a stash to pop", items)
		if err != nil {
			return err
		}
		var index int
		if _, err := fmt.Sscan(item.Value, &index); err != nil {
			return fmt.Errorf("stash index %q: %w", item.Value, err)
		}
		return repo.PopStash(ctx, index)
	})
}

// StashPopLatest pops the most recent stash.
func (c *CommandCenter) StashPopLatest(ctx context.Context, path string) error {
	return c.withRepo(ctx, "stashPopLatest", path, func(ctx context.Context, repo *repository.Repository) error {
		stashes, err := repo.GetStashes(ctx)
		if err != nil {
			return err
		}
		if len(stashes) == 0 {
			_, err := c.prompt.Info(ctx, "There are no stashes in the repository.")
			return err
		}
		return repo.PopStash(ctx, 0)
	})
}
