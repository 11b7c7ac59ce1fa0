package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/Mschirtzinger/stagehand/internal/staging"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// Status re-reads the resource groups.
func (r *Repository) Status(ctx context.Context) error {
	return r.run(ctx, OpStatus, func(context.Context) error { return nil })
}

// Add stages paths. No paths stages every change.
func (r *Repository) Add(ctx context.Context, paths []string) error {
	return r.run(ctx, OpAdd, func(ctx context.Context) error {
		return r.backend.Add(ctx, paths)
	})
}

// Revert unstages paths, resetting their index entries to HEAD.
func (r *Repository) Revert(ctx context.Context, paths []string) error {
	return r.run(ctx, OpRevert, func(ctx context.Context) error {
		return r.backend.Revert(ctx, "HEAD", paths)
	})
}

// Clean discards working tree changes: untracked paths are deleted and
// tracked ones are restored from the index.
func (r *Repository) Clean(ctx context.Context, paths []string) error {
	groups := r.Groups()

	var untracked, tracked []string
	for _, p := range paths {
		if res, ok := groups.Find(GroupWorkingTree, p); ok && res.Status == Untracked {
			untracked = append(untracked, p)
			continue
		}
		tracked = append(tracked, p)
	}

	return r.run(ctx, OpClean, func(ctx context.Context) error {
		if len(untracked) > 0 {
			if err := r.backend.Clean(ctx, untracked); err != nil {
				return err
			}
		}
		if len(tracked) > 0 {
			return r.backend.Checkout(ctx, "", tracked)
		}
		return nil
	})
}

// Commit records a commit.
func (r *Repository) Commit(ctx context.Context, message string, opts vcs.CommitOptions) error {
	return r.run(ctx, OpCommit, func(ctx context.Context) error {
		return r.backend.Commit(ctx, message, opts)
	})
}

// Checkout switches HEAD to treeish.
func (r *Repository) Checkout(ctx context.Context, treeish string) error {
	return r.run(ctx, OpCheckout, func(ctx context.Context) error {
		return r.backend.Checkout(ctx, treeish, nil)
	})
}

// Branch creates name at HEAD and checks it out when asked.
func (r *Repository) Branch(ctx context.Context, name string, checkout bool) error {
	return r.run(ctx, OpBranch, func(ctx context.Context) error {
		return r.backend.Branch(ctx, name, checkout)
	})
}

// DeleteBranch deletes a local branch.
func (r *Repository) DeleteBranch(ctx context.Context, name string, force bool) error {
	return r.run(ctx, OpDeleteBranch, func(ctx context.Context) error {
		return r.backend.DeleteBranch(ctx, name, force)
	})
}

// Merge merges ref into HEAD.
func (r *Repository) Merge(ctx context.Context, ref string) error {
	return r.run(ctx, OpMerge, func(ctx context.Context) error {
		return r.backend.Merge(ctx, ref)
	})
}

// Tag creates a tag at HEAD.
func (r *Repository) Tag(ctx context.Context, name, message string) error {
	return r.run(ctx, OpTag, func(ctx context.Context) error {
		return r.backend.Tag(ctx, name, message)
	})
}

// Fetch updates remote-tracking references.
func (r *Repository) Fetch(ctx context.Context, opts vcs.FetchOptions) error {
	return r.run(ctx, OpFetch, func(ctx context.Context) error {
		return r.backend.Fetch(ctx, opts)
	})
}

// Pull integrates remote changes into HEAD.
func (r *Repository) Pull(ctx context.Context, opts vcs.PullOptions) error {
	return r.run(ctx, OpPull, func(ctx context.Context) error {
		return r.backend.Pull(ctx, opts)
	})
}

// Push publishes local commits.
func (r *Repository) Push(ctx context.Context, opts vcs.PushOptions) error {
	return r.run(ctx, OpPush, func(ctx context.Context) error {
		return r.backend.Push(ctx, opts)
	})
}

// Sync pulls from the upstream of HEAD and pushes back when HEAD is ahead
// afterwards.
func (r *Repository) Sync(ctx context.Context, rebase bool) error {
	head := r.Head()
	if head == nil || head.Upstream == nil {
		return vcs.ErrNoUpstream
	}
	up := *head.Upstream

	return r.run(ctx, OpSync, func(ctx context.Context) error {
		if err := r.backend.Pull(ctx, vcs.PullOptions{Remote: up.Remote, Ref: up.Name, Rebase: rebase}); err != nil {
			return err
		}

		after, err := r.backend.Head(ctx)
		if err != nil {
			return err
		}
		if after != nil && after.Ahead == 0 {
			return nil
		}
		return r.backend.Push(ctx, vcs.PushOptions{Remote: up.Remote, Ref: up.Name})
	})
}

// CreateStash stashes working tree changes.
func (r *Repository) CreateStash(ctx context.Context, message string, includeUntracked bool) error {
	return r.run(ctx, OpStash, func(ctx context.Context) error {
		return r.backend.CreateStash(ctx, message, includeUntracked)
	})
}

// PopStash applies and drops stash@{index}.
func (r *Repository) PopStash(ctx context.Context, index int) error {
	return r.run(ctx, OpStash, func(ctx context.Context) error {
		return r.backend.PopStash(ctx, index)
	})
}

// GetStashes lists stashes, most recent first.
func (r *Repository) GetStashes(ctx context.Context) ([]vcs.Stash, error) {
	return r.backend.GetStashes(ctx)
}

// StageContent writes contents as the index version of path.
func (r *Repository) StageContent(ctx context.Context, path, contents string) error {
	return r.run(ctx, OpStage, func(ctx context.Context) error {
		return r.backend.StageContent(ctx, path, contents)
	})
}

// Reset moves HEAD to treeish.
func (r *Repository) Reset(ctx context.Context, treeish string, hard bool) error {
	return r.run(ctx, OpReset, func(ctx context.Context) error {
		return r.backend.Reset(ctx, treeish, hard)
	})
}

// Show returns path at ref; "" reads the index.
func (r *Repository) Show(ctx context.Context, ref, path string) (string, error) {
	var out string
	err := r.run(ctx, OpShow, func(ctx context.Context) (err error) {
		out, err = r.backend.Show(ctx, ref, path)
		return err
	})
	return out, err
}

// GetCommit returns the commit ref points to.
func (r *Repository) GetCommit(ctx context.Context, ref string) (vcs.Commit, error) {
	var c vcs.Commit
	err := r.run(ctx, OpGetCommit, func(ctx context.Context) (err error) {
		c, err = r.backend.GetCommit(ctx, ref)
		return err
	})
	return c, err
}

// CheckIgnore returns the subset of paths matched by ignore rules.
func (r *Repository) CheckIgnore(ctx context.Context, paths []string) (map[string]struct{}, error) {
	var ignored map[string]struct{}
	err := r.run(ctx, OpCheckIgnore, func(ctx context.Context) (err error) {
		ignored, err = r.backend.CheckIgnore(ctx, paths)
		return err
	})
	return ignored, err
}

// LineChanges returns the hunks of path, index against HEAD when cached,
// otherwise working tree against index.
func (r *Repository) LineChanges(ctx context.Context, path string, cached bool) ([]staging.LineChange, error) {
	var changes []staging.LineChange
	err := r.run(ctx, OpDiff, func(ctx context.Context) error {
		diff, err := r.backend.Diff(ctx, path, cached)
		if err != nil {
			return err
		}
		changes, err = staging.ParseLineChanges(diff)
		return err
	})
	return changes, err
}

// Ignore appends paths to the root .gitignore.
func (r *Repository) Ignore(ctx context.Context, paths []string) error {
	return r.run(ctx, OpIgnore, func(context.Context) error {
		file := filepath.Join(r.root, ".gitignore")

		data, err := afero.ReadFile(r.fs, file)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", file, err)
		}

		var b strings.Builder
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
		for _, p := range paths {
			rel, err := vcs.RelativePath(r.root, p)
			if err != nil {
				return err
			}
			b.WriteString(rel)
			b.WriteByte('\n')
		}

		if err := afero.WriteFile(r.fs, file, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
		return nil
	})
}
