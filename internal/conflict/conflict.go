// Package conflict decides which merge-group resources still carry
// conflict markers.
package conflict

import (
	"bufio"
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// markerPattern matches a conflict marker at the start of a line.
var markerPattern = regexp.MustCompile(`^(<{7}|={7}|>{7})`)

// DefaultConcurrency bounds how many files are scanned at once.
const DefaultConcurrency = 8

// Classification splits merge resources by whether staging them needs
// confirmation.
type Classification struct {
	// Resolved are both-modified files without markers.
	Resolved []repository.Resource

	// Unresolved are files with markers and merge states other than
	// both-modified.
	Unresolved []repository.Resource
}

// Resolver scans files for conflict markers.
type Resolver struct {
	fs          afero.Fs
	concurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFs sets the filesystem files are read from.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) { r.fs = fs }
}

// WithConcurrency bounds concurrent scans.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = n }
}

// New creates a resolver reading from the OS filesystem.
func New(opts ...Option) *Resolver {
	r := &Resolver{fs: afero.NewOsFs(), concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify sorts merge-group resources into resolved and unresolved. Both
// lists keep input order. Resources outside the merge group are ignored.
func (r *Resolver) Classify(ctx context.Context, resources []repository.Resource) (Classification, error) {
	hasMarkers := make([]bool, len(resources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, res := range resources {
		if res.Group != repository.GroupMerge || res.Status != repository.BothModified {
			continue
		}
		g.Go(func() error {
			found, err := r.HasMarkers(ctx, res.ResourceURI())
			hasMarkers[i] = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Classification{}, err
	}

	var c Classification
	for i, res := range resources {
		if res.Group != repository.GroupMerge {
			continue
		}
		if res.Status == repository.BothModified && !hasMarkers[i] {
			c.Resolved = append(c.Resolved, res)
		} else {
			c.Unresolved = append(c.Unresolved, res)
		}
	}
	return c, nil
}

// HasMarkers reports whether the file at path has a line starting with a
// conflict marker.
func (r *Resolver) HasMarkers(ctx context.Context, path string) (bool, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return false, fmt.Errorf("scan %s for conflict markers: %w", path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		if markerPattern.Match(s.Bytes()) {
			return true, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}
	if err := s.Err(); err != nil {
		return false, fmt.Errorf("scan %s for conflict markers: %w", path, err)
	}
	return false, nil
}
