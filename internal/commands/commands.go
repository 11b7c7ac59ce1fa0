// Package commands is the command surface of stagehand.
//
// A CommandCenter turns user intents (stage these files, commit, sync)
// into repository operations. It resolves which repository a command
// targets, asks the user for whatever the command still needs, routes
// multi-path operations through the router, and maps failures onto a
// single user-facing message.
//
// Every exported command follows the same contract: a cancelled prompt
// ends the command silently with a nil error; any other failure is shown
// to the user once and returned as a *Failure.
package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"github.com/Mschirtzinger/stagehand/internal/conflict"
	"github.com/Mschirtzinger/stagehand/internal/document"
	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/router"
	"github.com/Mschirtzinger/stagehand/internal/staging"
	"github.com/Mschirtzinger/stagehand/internal/ui"
	"github.com/Mschirtzinger/stagehand/internal/vcs/git"
)

// Settings is the configuration commands read and write.
type Settings interface {
	Bool(key string) bool
	String(key string) string
	Set(key string, value any) error
}

// CommandCenter runs commands against the repositories of a registry.
type CommandCenter struct {
	reg       *registry.Registry
	router    *router.Router
	conflicts *conflict.Resolver
	docs      *document.Store
	prompt    ui.Prompter
	settings  Settings
	log       zerolog.Logger

	logPath  string
	openLog  func(ctx context.Context, path string) error
	initRepo func(ctx context.Context, dir string) error

	mu     sync.Mutex
	drafts map[string]string // commit message drafts by repository root
}

// Option configures a CommandCenter.
type Option func(*CommandCenter)

// WithLogger sets the command logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *CommandCenter) { c.log = l }
}

// WithRouter sets the router used for multi-path commands.
func WithRouter(r *router.Router) Option {
	return func(c *CommandCenter) { c.router = r }
}

// WithConflictResolver sets the resolver that scans merge conflicts.
func WithConflictResolver(r *conflict.Resolver) Option {
	return func(c *CommandCenter) { c.conflicts = r }
}

// WithDocuments sets the store documents are edited through.
func WithDocuments(s *document.Store) Option {
	return func(c *CommandCenter) { c.docs = s }
}

// WithLog sets the log file ShowOutput and the error dialog open, and how
// to open it. A nil open shows the path.
func WithLog(path string, open func(ctx context.Context, path string) error) Option {
	return func(c *CommandCenter) {
		c.logPath = path
		c.openLog = open
	}
}

// WithInit replaces how Init creates a repository.
func WithInit(fn func(ctx context.Context, dir string) error) Option {
	return func(c *CommandCenter) { c.initRepo = fn }
}

// New creates a command center.
func New(reg *registry.Registry, prompt ui.Prompter, settings Settings, opts ...Option) *CommandCenter {
	c := &CommandCenter{
		reg:      reg,
		prompt:   prompt,
		settings: settings,
		log:      zerolog.Nop(),
		initRepo: git.Init,
		drafts:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.router == nil {
		c.router = router.New(reg, router.WithLogger(c.log))
	}
	if c.conflicts == nil {
		c.conflicts = conflict.New()
	}
	if c.docs == nil {
		c.docs = document.NewStore(nil)
	}
	return c
}

// Registry returns the registry commands run against.
func (c *CommandCenter) Registry() *registry.Registry { return c.reg }

// exec runs fn as the command name and handles its outcome.
func (c *CommandCenter) exec(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	err := c.guard(ctx, fn)
	return c.handle(ctx, name, err)
}

// guard calls fn, turning an invariant panic from the line engine into an
// error. Other panics propagate.
func (c *CommandCenter) guard(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ie := invariantFrom(r); ie != nil {
			err = ie
			return
		}
		panic(r)
	}()
	return fn(ctx)
}

func invariantFrom(r any) *staging.InvariantError {
	switch v := r.(type) {
	case *staging.InvariantError:
		return v
	case *panics.Recovered:
		if ie, ok := v.Value.(*staging.InvariantError); ok {
			return ie
		}
	case panics.Recovered:
		if ie, ok := v.Value.(*staging.InvariantError); ok {
			return ie
		}
	}
	return nil
}

// handle shows err to the user and wraps it in a *Failure. Cancellation
// is swallowed.
func (c *CommandCenter) handle(ctx context.Context, name string, err error) error {
	if err == nil || isCancelled(err) {
		return nil
	}

	var ie *staging.InvariantError
	if errors.As(err, &ie) {
		c.log.Error().Err(err).Str("command", name).Msg("line change invariant violated")
	} else {
		c.log.Error().Err(err).Str("command", name).Msg("command failed")
	}

	message := ErrorMessage(err)
	choice, perr := c.prompt.Error(ctx, message, OpenLogChoice)
	if perr == nil && choice == OpenLogChoice {
		if err := c.showOutput(ctx); err != nil {
			c.log.Warn().Err(err).Msg("open log")
		}
	}
	return &Failure{Command: name, Message: message, Err: err}
}

func isCancelled(err error) bool {
	return errors.Is(err, ui.ErrCancelled) || errors.Is(err, context.Canceled)
}

// withRepo resolves the repository for path and runs fn against it.
func (c *CommandCenter) withRepo(ctx context.Context, name, path string, fn func(ctx context.Context, repo *repository.Repository) error) error {
	return c.exec(ctx, name, func(ctx context.Context) error {
		repo, err := c.resolve(ctx, path)
		if err != nil {
			return err
		}
		return fn(ctx, repo)
	})
}

// resolve picks the repository a command targets: the owner of path when
// there is one, the only open repository, or the user's pick.
func (c *CommandCenter) resolve(ctx context.Context, path string) (*repository.Repository, error) {
	if path != "" {
		if repo := c.reg.Get(path); repo != nil {
			return repo, nil
		}
	}

	repos := c.reg.List()
	switch len(repos) {
	case 0:
		if _, err := c.prompt.Info(ctx, "There are no available repositories"); err != nil {
			return nil, err
		}
		return nil, ui.ErrCancelled
	case 1:
		return repos[0], nil
	}

	items := make([]ui.Item, len(repos))
	for i, repo := range repos {
		items[i] = ui.Item{Label: filepath.Base(repo.Root()), Description: repo.Root(), Value: repo.Root()}
	}
	item, err := c.prompt.Pick(ctx, "Choose a repository", items)
	if err != nil {
		return nil, err
	}
	if repo := c.reg.Get(item.Value); repo != nil {
		return repo, nil
	}
	return nil, ui.ErrCancelled
}

// confirm shows a modal warning and reports whether yes was chosen.
func (c *CommandCenter) confirm(ctx context.Context, message, yes string) (bool, error) {
	choice, err := c.prompt.Warn(ctx, message, yes)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return false, nil
		}
		return false, err
	}
	return choice == yes, nil
}

// Init creates a repository in dir and opens it.
func (c *CommandCenter) Init(ctx context.Context, dir string) error {
	return c.exec(ctx, "init", func(ctx context.Context) error {
		if dir == "" {
			d, err := c.prompt.Input(ctx, ui.InputOptions{
				Title:       "Pick workspace folder to initialize git repo in",
				Placeholder: "Folder path",
			})
			if err != nil {
				return err
			}
			if d == "" {
				return ui.ErrCancelled
			}
			dir = d
		}
		if err := c.initRepo(ctx, dir); err != nil {
			return fmt.Errorf("init %s: %w", dir, err)
		}
		_, err := c.reg.Open(ctx, dir)
		return err
	})
}

// Open opens the repository containing path.
func (c *CommandCenter) Open(ctx context.Context, path string) error {
	return c.exec(ctx, "open", func(ctx context.Context) error {
		_, err := c.reg.Open(ctx, path)
		return err
	})
}

// Close closes the repository owning path.
func (c *CommandCenter) Close(ctx context.Context, path string) error {
	return c.withRepo(ctx, "close", path, func(ctx context.Context, repo *repository.Repository) error {
		c.reg.Close(repo.Root())
		return nil
	})
}

// Refresh re-reads the status of the repository owning path.
func (c *CommandCenter) Refresh(ctx context.Context, path string) error {
	return c.withRepo(ctx, "refresh", path, func(ctx context.Context, repo *repository.Repository) error {
		return repo.Status(ctx)
	})
}

// ShowOutput opens the git log.
func (c *CommandCenter) ShowOutput(ctx context.Context) error {
	return c.exec(ctx, "showOutput", c.showOutput)
}

func (c *CommandCenter) showOutput(ctx context.Context) error {
	if c.openLog != nil {
		return c.openLog(ctx, c.logPath)
	}
	_, err := c.prompt.Info(ctx, "Git log: "+c.logPath)
	return err
}
