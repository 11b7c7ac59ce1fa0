package commands

import (
	"context"
	"fmt"

	"github.com/Mschirtzinger/stagehand/internal/config"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/ui"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Smart commit answers.
const (
	SmartCommitYes    = "Yes"
	SmartCommitAlways = "Always"
	SmartCommitNever  = "Never"
)

// Commit commits the repository owning path. An empty message is asked
// for. With nil opts the commit is "smart": when nothing is staged, all
// changes are committed, after asking unless enableSmartCommit is set.
func (c *CommandCenter) Commit(ctx context.Context, path, message string, opts *vcs.CommitOptions) error {
	return c.withRepo(ctx, "commit", path, func(ctx context.Context, repo *repository.Repository) error {
		return c.smartCommit(ctx, repo, message, opts)
	})
}

// CommitStaged commits only what is staged.
func (c *CommandCenter) CommitStaged(ctx context.Context, path, message string) error {
	return c.Commit(ctx, path, message, &vcs.CommitOptions{})
}

// CommitAll commits every tracked change.
func (c *CommandCenter) CommitAll(ctx context.Context, path, message string) error {
	return c.Commit(ctx, path, message, &vcs.CommitOptions{All: true})
}

// CommitAmend amends HEAD with what is staged.
func (c *CommandCenter) CommitAmend(ctx context.Context, path, message string) error {
	return c.Commit(ctx, path, message, &vcs.CommitOptions{Amend: true})
}

func (c *CommandCenter) smartCommit(ctx context.Context, repo *repository.Repository, message string, opts *vcs.CommitOptions) error {
	groups := repo.Groups()
	noStaged := len(groups.Index) == 0
	noUnstaged := len(groups.WorkingTree) == 0

	if !noUnstaged && noStaged && !c.settings.Bool(config.KeyEnableSmartCommit) {
		choice, err := c.prompt.Warn(ctx,
			"There are no staged changes to commit.\n\nWould you like to automatically stage all your changes and commit them directly?",
			SmartCommitYes, SmartCommitAlways, SmartCommitNever)
		if err != nil {
			return err
		}
		switch choice {
		case SmartCommitYes:
		case SmartCommitAlways:
			if err := c.settings.Set(config.KeyEnableSmartCommit, true); err != nil {
				c.log.Warn().Err(err).Msg("save enableSmartCommit")
			}
		default:
			return nil
		}
	}

	var o vcs.CommitOptions
	if opts != nil {
		o = *opts
	} else {
		o.All = noStaged
	}
	o.Signed = c.settings.Bool(config.KeyEnableCommitSigning)

	if (noStaged && noUnstaged) || (!o.All && noStaged) {
		_, err := c.prompt.Info(ctx, "There are no changes to commit.")
		return err
	}

	if message == "" {
		m, err := c.prompt.Input(ctx, ui.InputOptions{
			Title:       "Commit message",
			Placeholder: "Message (press Enter to confirm or Esc to cancel)",
			Value:       c.draft(repo.Root()),
		})
		if err != nil {
			return err
		}
		if m == "" {
			return nil
		}
		message = m
	}

	if err := repo.Commit(ctx, message, o); err != nil {
		return err
	}
	c.setDraft(repo.Root(), "")
	return nil
}

// UndoCommit resets HEAD to its parent, keeping the changes. The undone
// message becomes the draft of the next commit.
func (c *CommandCenter) UndoCommit(ctx context.Context, path string) error {
	return c.withRepo(ctx, "undoCommit", path, func(ctx context.Context, repo *repository.Repository) error {
		head := repo.Head()
		if head == nil || head.Commit == "" {
			return nil
		}

		commit, err := repo.GetCommit(ctx, "HEAD")
		if err != nil {
			return err
		}
		if err := repo.Reset(ctx, "HEAD~", false); err != nil {
			return err
		}
		c.setDraft(repo.Root(), commit.Message)

		_, err = c.prompt.Info(ctx, fmt.Sprintf("Undid commit %s", short(commit.Hash)))
		return err
	})
}

func (c *CommandCenter) draft(root string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drafts[root]
}

func (c *CommandCenter) setDraft(root, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if message == "" {
		delete(c.drafts, root)
		return
	}
	c.drafts[root] = message
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
