// Package router fans an operation on a set of paths out to the
// repositories owning them.
//
// Paths are grouped by owning repository in first-seen order and each
// group is handed to the operation once, concurrently with the other
// groups. Paths no open repository owns are logged and skipped.
package router

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// Resolver finds the repository owning a path, or nil.
type Resolver interface {
	Get(path string) *repository.Repository
}

// Group is the slice of a batch owned by one repository.
type Group struct {
	Repository *repository.Repository
	Paths      []string
}

// GroupPaths partitions paths by owning repository. Groups appear in the
// order their repository was first seen and keep the input order of their
// paths. Paths without an owner are returned separately.
func GroupPaths(resolver Resolver, paths []string) (groups []Group, unresolved []string) {
	index := make(map[*repository.Repository]int)
	for _, p := range paths {
		repo := resolver.Get(p)
		if repo == nil {
			unresolved = append(unresolved, p)
			continue
		}
		i, ok := index[repo]
		if !ok {
			i = len(groups)
			index[repo] = i
			groups = append(groups, Group{Repository: repo})
		}
		groups[i].Paths = append(groups[i].Paths, p)
	}
	return groups, unresolved
}

// Router dispatches path operations to repositories.
type Router struct {
	resolver      Resolver
	log           zerolog.Logger
	maxGoroutines int
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for unresolved path diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithMaxGoroutines bounds how many repositories are operated on at once.
func WithMaxGoroutines(n int) Option {
	return func(r *Router) { r.maxGoroutines = n }
}

// New creates a router over resolver, usually a *registry.Registry.
func New(resolver Resolver, opts ...Option) *Router {
	r := &Router{resolver: resolver, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of one group.
type Result[T any] struct {
	Group
	Value T
	Err   error
}

// RunBatch groups paths and calls fn once per repository with that
// repository's paths. It returns one result per group in group order. The
// error joins the failures of every group; groups that succeeded still
// report their values.
func RunBatch[T any](ctx context.Context, r *Router, paths []string, fn func(ctx context.Context, repo *repository.Repository, paths []string) (T, error)) ([]Result[T], error) {
	groups, unresolved := GroupPaths(r.resolver, paths)
	for _, p := range unresolved {
		r.log.Warn().Str("path", p).Msg("no repository owns path, skipping")
	}

	results := make([]Result[T], len(groups))
	if len(groups) == 0 {
		return results, nil
	}

	p := pool.New().WithErrors().WithContext(ctx)
	if r.maxGoroutines > 0 {
		p = p.WithMaxGoroutines(r.maxGoroutines)
	}
	for i, g := range groups {
		p.Go(func(ctx context.Context) error {
			v, err := fn(ctx, g.Repository, g.Paths)
			results[i] = Result[T]{Group: g, Value: v, Err: err}
			return err
		})
	}
	return results, p.Wait()
}

// RunScalar resolves the single path and calls fn with it.
func RunScalar[T any](ctx context.Context, r *Router, path string, fn func(ctx context.Context, repo *repository.Repository, path string) (T, error)) (T, error) {
	results, err := RunBatch(ctx, r, []string{path}, func(ctx context.Context, repo *repository.Repository, paths []string) (T, error) {
		return fn(ctx, repo, paths[0])
	})
	if len(results) == 0 {
		var zero T
		return zero, err
	}
	return results[0].Value, err
}

// Run is RunBatch for operations without a result value.
func (r *Router) Run(ctx context.Context, paths []string, fn func(ctx context.Context, repo *repository.Repository, paths []string) error) error {
	_, err := RunBatch(ctx, r, paths, func(ctx context.Context, repo *repository.Repository, paths []string) (struct{}, error) {
		return struct{}{}, fn(ctx, repo, paths)
	})
	return err
}

// Failed returns the errors of the failed groups.
func Failed[T any](results []Result[T]) []error {
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errs
}

// AllFailed reports whether every group failed.
func AllFailed[T any](results []Result[T]) bool {
	return len(results) > 0 && len(Failed(results)) == len(results)
}
