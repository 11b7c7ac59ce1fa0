package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/config"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/ui"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

const (
	noRemotesFetch   = "This repository has no remotes configured to fetch from."
	noRemotesPull    = "Your repository has no remotes configured to pull from."
	noRemotesPush    = "Your repository has no remotes configured to push to."
	noRemotesPublish = "Your repository has no remotes configured to publish to."
)

// Sync confirmation answers.
const (
	SyncOK            = "OK"
	SyncDontShowAgain = "OK, Don't Show Again"
)

// requireRemotes warns with message and cancels when repo has no remotes.
func (c *CommandCenter) requireRemotes(ctx context.Context, repo *repository.Repository, message string) error {
	if len(repo.Remotes()) > 0 {
		return nil
	}
	if _, err := c.prompt.Warn(ctx, message); err != nil {
		return err
	}
	return ui.ErrCancelled
}

// Fetch updates the remote-tracking references of the repository owning
// path.
func (c *CommandCenter) Fetch(ctx context.Context, path string) error {
	return c.withRepo(ctx, "fetch", path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesFetch); err != nil {
			return err
		}
		return repo.Fetch(ctx, vcs.FetchOptions{})
	})
}

// Pull integrates the upstream of HEAD.
func (c *CommandCenter) Pull(ctx context.Context, path string) error {
	return c.pull(ctx, "pull", path, false)
}

// PullRebase rebases HEAD onto its upstream.
func (c *CommandCenter) PullRebase(ctx context.Context, path string) error {
	return c.pull(ctx, "pullRebase", path, true)
}

func (c *CommandCenter) pull(ctx context.Context, name, path string, rebase bool) error {
	return c.withRepo(ctx, name, path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesPull); err != nil {
			return err
		}
		return repo.Pull(ctx, vcs.PullOptions{Rebase: rebase})
	})
}

// PullFrom pulls a branch of a remote, both asked for when empty.
func (c *CommandCenter) PullFrom(ctx context.Context, path, remote, branch string) error {
	return c.withRepo(ctx, "pullFrom", path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesPull); err != nil {
			return err
		}
		remote, err := c.pickRemote(ctx, repo, remote, "Pick a remote to pull the branch from")
		if err != nil {
			return err
		}
		if branch == "" {
			b, err := c.prompt.Input(ctx, ui.InputOptions{
				Title:       "Type the branch name",
				Placeholder: "Branch name",
			})
			if err != nil {
				return err
			}
			branch = strings.TrimSpace(b)
		}
		if branch == "" {
			return nil
		}
		return repo.Pull(ctx, vcs.PullOptions{Remote: remote, Ref: branch})
	})
}

// Push pushes HEAD to its upstream.
func (c *CommandCenter) Push(ctx context.Context, path string) error {
	return c.withRepo(ctx, "push", path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesPush); err != nil {
			return err
		}
		return repo.Push(ctx, vcs.PushOptions{})
	})
}

// PushWithTags pushes HEAD and its annotated tags.
func (c *CommandCenter) PushWithTags(ctx context.Context, path string) error {
	return c.withRepo(ctx, "pushWithTags", path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesPush); err != nil {
			return err
		}
		if err := repo.Push(ctx, vcs.PushOptions{Tags: true}); err != nil {
			return err
		}
		_, err := c.prompt.Info(ctx, "Successfully pushed.")
		return err
	})
}

// PushTo pushes the current branch to a remote, asked for when empty.
func (c *CommandCenter) PushTo(ctx context.Context, path, remote string) error {
	return c.withRepo(ctx, "pushTo", path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesPush); err != nil {
			return err
		}
		head := repo.Head()
		if head == nil || head.Name == "" {
			_, err := c.prompt.Warn(ctx, "Please check out a branch to push to a remote.")
			return err
		}
		remote, err := c.pickRemote(ctx, repo, remote, fmt.Sprintf("Pick a remote to push the branch '%s' to:", head.Name))
		if err != nil {
			return err
		}
		return repo.Push(ctx, vcs.PushOptions{Remote: remote, Ref: head.Name})
	})
}

// Publish pushes the current branch and sets its upstream. A single remote
// is used without asking.
func (c *CommandCenter) Publish(ctx context.Context, path string) error {
	return c.withRepo(ctx, "publish", path, func(ctx context.Context, repo *repository.Repository) error {
		if err := c.requireRemotes(ctx, repo, noRemotesPublish); err != nil {
			return err
		}
		head := repo.Head()
		if head == nil || head.Name == "" {
			return nil
		}

		remotes := repo.Remotes()
		remote := ""
		if len(remotes) == 1 {
			remote = remotes[0].Name
		}
		remote, err := c.pickRemote(ctx, repo, remote, fmt.Sprintf("Pick a remote to publish the branch '%s' to:", head.Name))
		if err != nil {
			return err
		}
		return repo.Push(ctx, vcs.PushOptions{Remote: remote, Ref: head.Name, SetUpstream: true})
	})
}

func (c *CommandCenter) pickRemote(ctx context.Context, repo *repository.Repository, remote, title string) (string, error) {
	if remote != "" {
		return remote, nil
	}
	remotes := repo.Remotes()
	items := make([]ui.Item, len(remotes))
	for i, r := range remotes {
		items[i] = ui.Item{Label: r.Name, Description: r.FetchURL, Value: r.Name}
	}
	item, err := c.prompt.Pick(ctx, title, items)
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

// Sync pulls from and pushes to the upstream of HEAD. Without an upstream
// nothing happens. The first sync asks for confirmation unless confirmSync
// is off.
func (c *CommandCenter) Sync(ctx context.Context, path string) error {
	return c.sync(ctx, "sync", path, false)
}

// SyncRebase is Sync with a rebasing pull.
func (c *CommandCenter) SyncRebase(ctx context.Context, path string) error {
	return c.sync(ctx, "syncRebase", path, true)
}

func (c *CommandCenter) sync(ctx context.Context, name, path string, rebase bool) error {
	return c.withRepo(ctx, name, path, func(ctx context.Context, repo *repository.Repository) error {
		head := repo.Head()
		if head == nil || head.Upstream == nil {
			return nil
		}

		if c.settings.Bool(config.KeyConfirmSync) {
			message := fmt.Sprintf("This action will push and pull commits to and from '%s/%s'.", head.Upstream.Remote, head.Upstream.Name)
			choice, err := c.prompt.Warn(ctx, message, SyncOK, SyncDontShowAgain)
			if err != nil {
				return err
			}
			switch choice {
			case SyncOK:
			case SyncDontShowAgain:
				if err := c.settings.Set(config.KeyConfirmSync, false); err != nil {
					c.log.Warn().Err(err).Msg("save confirmSync")
				}
			default:
				return nil
			}
		}

		return repo.Sync(ctx, rebase)
	})
}

// SyncAll syncs every open repository that has an upstream, concurrently.
func (c *CommandCenter) SyncAll(ctx context.Context) error {
	return c.exec(ctx, "syncAll", func(ctx context.Context) error {
		var roots []string
		for _, repo := range c.reg.List() {
			if head := repo.Head(); head != nil && head.Upstream != nil {
				roots = append(roots, repo.Root())
			}
		}
		if len(roots) == 0 {
			return nil
		}
		return c.router.Run(ctx, roots, func(ctx context.Context, repo *repository.Repository, _ []string) error {
			err := repo.Sync(ctx, false)
			if errors.Is(err, vcs.ErrNoUpstream) {
				return nil
			}
			return err
		})
	})
}
