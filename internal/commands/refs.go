package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/config"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/ui"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// CreateBranchLabel is the checkout item that creates a branch instead.
const CreateBranchLabel = "+ Create new branch"

var (
	invalidRefChars = regexp.MustCompile(`^\.|/\.|\.\.|~|\^|:|/$|\.lock$|\.lock/|\\|\*|\s|^\s*$|\.$`)
	remotePrefix    = regexp.MustCompile(`^[^/]+/(.*)$`)
)

// SanitizeRefName replaces the characters git refuses in reference names
// with dashes.
func SanitizeRefName(name string) string {
	return invalidRefChars.ReplaceAllString(strings.TrimSpace(name), "-")
}

// Checkout asks for a reference and checks it out. Which references are
// offered follows the checkoutType setting.
func (c *CommandCenter) Checkout(ctx context.Context, path, treeish string) error {
	return c.withRepo(ctx, "checkout", path, func(ctx context.Context, repo *repository.Repository) error {
		if treeish != "" {
			return repo.Checkout(ctx, treeish)
		}

		items := []ui.Item{{Label: CreateBranchLabel}}
		items = append(items, c.checkoutItems(repo)...)

		item, err := c.prompt.Pick(ctx, "Select a ref to checkout", items)
		if err != nil {
			return err
		}
		if item.Label == CreateBranchLabel && item.Value == "" {
			return c.branch(ctx, repo, "")
		}
		return repo.Checkout(ctx, item.Value)
	})
}

func (c *CommandCenter) checkoutItems(repo *repository.Repository) []ui.Item {
	checkout := c.settings.String(config.KeyCheckoutType)
	include := func(t vcs.RefType) bool {
		switch checkout {
		case config.CheckoutLocal:
			return t == vcs.RefHead
		case config.CheckoutTags:
			return t == vcs.RefTag
		case config.CheckoutRemote:
			return t == vcs.RefRemoteHead
		default:
			return true
		}
	}

	var heads, tags, remotes []ui.Item
	for _, ref := range repo.Refs() {
		if !include(ref.Type) {
			continue
		}
		switch ref.Type {
		case vcs.RefHead:
			heads = append(heads, ui.Item{Label: ref.Name, Description: short(ref.Commit), Value: ref.Name})
		case vcs.RefTag:
			tags = append(tags, ui.Item{Label: ref.Name, Description: fmt.Sprintf("Tag at %s", short(ref.Commit)), Value: ref.Name})
		case vcs.RefRemoteHead:
			value := ref.Name
			if m := remotePrefix.FindStringSubmatch(ref.Name); m != nil {
				value = m[1]
			}
			remotes = append(remotes, ui.Item{Label: ref.Name, Description: fmt.Sprintf("Remote branch at %s", short(ref.Commit)), Value: value})
		}
	}

	items := append(heads, tags...)
	return append(items, remotes...)
}

// Branch creates a branch and checks it out. An empty name is asked for.
func (c *CommandCenter) Branch(ctx context.Context, path, name string) error {
	return c.withRepo(ctx, "branch", path, func(ctx context.Context, repo *repository.Repository) error {
		return c.branch(ctx, repo, name)
	})
}

func (c *CommandCenter) branch(ctx context.Context, repo *repository.Repository, name string) error {
	if name == "" {
		n, err := c.prompt.Input(ctx, ui.InputOptions{
			Title:       "Please provide a branch name",
			Placeholder: "Branch name",
		})
		if err != nil {
			return err
		}
		name = n
	}
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return repo.Branch(ctx, SanitizeRefName(name), true)
}

// DeleteBranch deletes a local branch other than the current one. An
// unmerged branch is force deleted after confirmation.
func (c *CommandCenter) DeleteBranch(ctx context.Context, path, name string) error {
	return c.withRepo(ctx, "deleteBranch", path, func(ctx context.Context, repo *repository.Repository) error {
		if name == "" {
			var current string
			if head := repo.Head(); head != nil {
				current = head.Name
			}
			var items []ui.Item
			for _, ref := range repo.Refs() {
				if ref.Type == vcs.RefHead && ref.Name != current {
					items = append(items, ui.Item{Label: ref.Name, Description: short(ref.Commit), Value: ref.Name})
				}
			}
			item, err := c.prompt.Pick(ctx, "Select a branch to delete", items)
			if err != nil {
				return err
			}
			name = item.Value
		}

		err := repo.DeleteBranch(ctx, name, false)
		if !errors.Is(err, vcs.ErrBranchNotFullyMerged) {
			return err
		}

		message := fmt.Sprintf("The branch '%s' is not fully merged. Delete anyway?", name)
		ok, err := c.confirm(ctx, message, "Delete Branch")
		if err != nil || !ok {
			return err
		}
		return repo.DeleteBranch(ctx, name, true)
	})
}

// Merge merges a reference into HEAD. Conflicts leave the repository
// mid-merge and are reported as a warning, not a failure.
func (c *CommandCenter) Merge(ctx context.Context, path, ref string) error {
	return c.withRepo(ctx, "merge", path, func(ctx context.Context, repo *repository.Repository) error {
		if ref == "" {
			var current string
			if head := repo.Head(); head != nil {
				current = head.Name
			}
			var items []ui.Item
			for _, r := range repo.Refs() {
				if r.Type == vcs.RefTag || r.Name == current {
					continue
				}
				items = append(items, ui.Item{Label: r.Name, Description: short(r.Commit), Value: r.Name})
			}
			item, err := c.prompt.Pick(ctx, "Select a branch to merge from", items)
			if err != nil {
				return err
			}
			ref = item.Value
		}

		err := repo.Merge(ctx, ref)
		if errors.Is(err, vcs.ErrConflicts) {
			_, werr := c.prompt.Warn(ctx, "There are merge conflicts. Resolve them before committing.")
			return werr
		}
		return err
	})
}

// CreateTag tags HEAD. The name, and the message of the annotated tag, are
// asked for when empty. A skipped message falls back to the name.
func (c *CommandCenter) CreateTag(ctx context.Context, path, name, message string) error {
	return c.withRepo(ctx, "createTag", path, func(ctx context.Context, repo *repository.Repository) error {
		if name == "" {
			n, err := c.prompt.Input(ctx, ui.InputOptions{
				Title:       "Please provide a tag name",
				Placeholder: "Tag name",
			})
			if err != nil {
				return err
			}
			name = n
		}
		if strings.TrimSpace(name) == "" {
			return nil
		}
		name = SanitizeRefName(name)

		if message == "" {
			m, err := c.prompt.Input(ctx, ui.InputOptions{
				Title:       "Please provide a message to annotate the tag",
				Placeholder: "Message",
			})
			switch {
			case errors.Is(err, ui.ErrCancelled):
			case err != nil:
				return err
			default:
				message = m
			}
		}
		if message == "" {
			message = name
		}
		return repo.Tag(ctx, name, message)
	})
}
