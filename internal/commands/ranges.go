package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Mschirtzinger/stagehand/internal/document"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/router"
	"github.com/Mschirtzinger/stagehand/internal/staging"
)

// StageSelectedRanges stages the parts of path's working tree changes
// that the selections touch. The rest of the file stays unstaged.
func (c *CommandCenter) StageSelectedRanges(ctx context.Context, path string, selections []staging.Range) error {
	return c.exec(ctx, "stageSelectedRanges", func(ctx context.Context) error {
		return c.onFile(ctx, path, func(ctx context.Context, repo *repository.Repository, path string) error {
			modified, err := c.docs.Open(path)
			if err != nil {
				return err
			}
			index, err := c.version(ctx, repo, "", path)
			if err != nil {
				return err
			}

			changes, err := staging.ComputeLineChanges(index.Text(), modified.Text())
			if err != nil {
				return err
			}
			selected := staging.SelectChanges(modified, changes, staging.ToLineRanges(selections, modified))
			if len(selected) == 0 {
				return nil
			}

			result := staging.ApplyLineChanges(index, modified, selected)
			return repo.StageContent(ctx, path, result)
		})
	})
}

// RevertSelectedRanges discards, after confirmation, the working tree
// changes of path that the selections touch. The document is rewritten
// and saved.
func (c *CommandCenter) RevertSelectedRanges(ctx context.Context, path string, selections []staging.Range) error {
	return c.exec(ctx, "revertSelectedRanges", func(ctx context.Context) error {
		return c.onFile(ctx, path, func(ctx context.Context, repo *repository.Repository, path string) error {
			modified, err := c.docs.Open(path)
			if err != nil {
				return err
			}
			index, err := c.version(ctx, repo, "", path)
			if err != nil {
				return err
			}

			changes, err := staging.ComputeLineChanges(index.Text(), modified.Text())
			if err != nil {
				return err
			}
			kept := staging.ExcludeChanges(modified, changes, staging.ToLineRanges(selections, modified))
			if len(kept) == len(changes) {
				return nil
			}

			message := fmt.Sprintf("Are you sure you want to revert the selected changes in %s?", filepath.Base(path))
			ok, err := c.confirm(ctx, message, "Revert Changes")
			if err != nil || !ok {
				return err
			}

			modified.Replace(staging.ApplyLineChanges(index, modified, kept))
			return c.docs.Save(modified)
		})
	})
}

// UnstageSelectedRanges removes from the index the staged changes of path
// that the selections touch. Selections address lines of the staged
// version.
func (c *CommandCenter) UnstageSelectedRanges(ctx context.Context, path string, selections []staging.Range) error {
	return c.exec(ctx, "unstageSelectedRanges", func(ctx context.Context) error {
		return c.onFile(ctx, path, func(ctx context.Context, repo *repository.Repository, path string) error {
			head, err := c.version(ctx, repo, "HEAD", path)
			if err != nil {
				return err
			}
			index, err := c.version(ctx, repo, "", path)
			if err != nil {
				return err
			}

			changes, err := staging.ComputeLineChanges(head.Text(), index.Text())
			if err != nil {
				return err
			}
			selected := staging.SelectChanges(index, changes, staging.ToLineRanges(selections, index))
			if len(selected) == 0 {
				return nil
			}

			result := staging.ApplyLineChanges(index, head, staging.InvertLineChanges(selected))
			return repo.StageContent(ctx, path, result)
		})
	})
}

// onFile routes the single path to its repository.
func (c *CommandCenter) onFile(ctx context.Context, path string, fn func(ctx context.Context, repo *repository.Repository, path string) error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	_, err = router.RunScalar(ctx, c.router, abs, func(ctx context.Context, repo *repository.Repository, path string) (struct{}, error) {
		return struct{}{}, fn(ctx, repo, path)
	})
	return err
}

// version reads path at ref ("" for the index) as a document.
func (c *CommandCenter) version(ctx context.Context, repo *repository.Repository, ref, path string) (*document.Document, error) {
	text, err := repo.Show(ctx, ref, path)
	if err != nil {
		return nil, err
	}
	uri := path + "@" + ref
	if ref == "" {
		uri = path + "@index"
	}
	return document.New(uri, text), nil
}
