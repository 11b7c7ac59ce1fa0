package vcs

import (
	"context"
	"errors"
)

var errStub = errors.New("stub backend")

// stubBackend satisfies Backend with failing operations. Tests embed it
// and override the methods they need.
type stubBackend struct{}

func (stubBackend) Name() Type                                             { return "stub" }
func (stubBackend) Version() (string, error)                               { return "", errStub }
func (stubBackend) RepoRoot() string                                       { return "" }
func (stubBackend) Status(context.Context) ([]FileStatus, error)           { return nil, errStub }
func (stubBackend) Head(context.Context) (*Branch, error)                  { return nil, errStub }
func (stubBackend) Refs(context.Context) ([]Ref, error)                    { return nil, errStub }
func (stubBackend) Remotes(context.Context) ([]Remote, error)              { return nil, errStub }
func (stubBackend) GetCommit(context.Context, string) (Commit, error)      { return Commit{}, errStub }
func (stubBackend) Add(context.Context, []string) error                    { return errStub }
func (stubBackend) Revert(context.Context, string, []string) error         { return errStub }
func (stubBackend) Clean(context.Context, []string) error                  { return errStub }
func (stubBackend) Checkout(context.Context, string, []string) error       { return errStub }
func (stubBackend) Show(context.Context, string, string) (string, error)   { return "", errStub }
func (stubBackend) StageContent(context.Context, string, string) error     { return errStub }
func (stubBackend) Diff(context.Context, string, bool) ([]byte, error)     { return nil, errStub }
func (stubBackend) Commit(context.Context, string, CommitOptions) error    { return errStub }
func (stubBackend) Reset(context.Context, string, bool) error              { return errStub }
func (stubBackend) Branch(context.Context, string, bool) error             { return errStub }
func (stubBackend) DeleteBranch(context.Context, string, bool) error       { return errStub }
func (stubBackend) Merge(context.Context, string) error                    { return errStub }
func (stubBackend) Tag(context.Context, string, string) error              { return errStub }
func (stubBackend) Fetch(context.Context, FetchOptions) error              { return errStub }
func (stubBackend) Pull(context.Context, PullOptions) error                { return errStub }
func (stubBackend) Push(context.Context, PushOptions) error                { return errStub }
func (stubBackend) CreateStash(context.Context, string, bool) error        { return errStub }
func (stubBackend) PopStash(context.Context, int) error                    { return errStub }
func (stubBackend) GetStashes(context.Context) ([]Stash, error)            { return nil, errStub }
func (stubBackend) CheckIgnore(context.Context, []string) (map[string]struct{}, error) {
	return nil, errStub
}
