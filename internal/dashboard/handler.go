package dashboard

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Mschirtzinger/stagehand/internal/decoration"
	"github.com/Mschirtzinger/stagehand/internal/registry"
	"github.com/Mschirtzinger/stagehand/internal/repository"
)

// RepositoryInfo summarises an open repository.
type RepositoryInfo struct {
	Root        string `json:"root"`
	Branch      string `json:"branch,omitempty"`
	Commit      string `json:"commit,omitempty"`
	Upstream    string `json:"upstream,omitempty"`
	Ahead       int    `json:"ahead,omitempty"`
	Behind      int    `json:"behind,omitempty"`
	Index       int    `json:"index"`
	WorkingTree int    `json:"working_tree"`
	Merge       int    `json:"merge"`
}

// Describe summarises repo from its last known state.
func Describe(repo *repository.Repository) RepositoryInfo {
	groups := repo.Groups()
	info := RepositoryInfo{
		Root:        repo.Root(),
		Index:       len(groups.Index),
		WorkingTree: len(groups.WorkingTree),
		Merge:       len(groups.Merge),
	}
	if head := repo.Head(); head != nil {
		info.Branch = head.Name
		info.Commit = head.Commit
		info.Ahead = head.Ahead
		info.Behind = head.Behind
		if up := head.Upstream; up != nil {
			info.Upstream = up.Remote + "/" + up.Name
		}
	}
	return info
}

// Repositories returns a lister of every repository open in reg.
func Repositories(reg *registry.Registry) func() []RepositoryInfo {
	return func() []RepositoryInfo {
		repos := reg.List()
		out := make([]RepositoryInfo, len(repos))
		for i, repo := range repos {
			out[i] = Describe(repo)
		}
		return out
	}
}

// OperationData reports a finished repository operation.
type OperationData struct {
	Root      string `json:"root"`
	Operation string `json:"operation"`
	Error     string `json:"error,omitempty"`
}

// RepositoryData reports a repository opening or closing.
type RepositoryData struct {
	Action     string         `json:"action"` // opened, closed
	Repository RepositoryInfo `json:"repository"`
}

// AutofetchData reports an autofetch transition.
type AutofetchData struct {
	Root    string `json:"root"`
	Enabled bool   `json:"enabled"`
}

// Broadcaster receives formatted messages.
type Broadcaster interface {
	Broadcast(Message)
}

// Handler turns registry, repository and decoration events into dashboard
// messages.
type Handler struct {
	out Broadcaster
	log zerolog.Logger

	mu     sync.Mutex
	unsubs []func()
	repos  map[*repository.Repository]func()
}

// NewHandler creates a handler writing to out.
func NewHandler(out Broadcaster, log zerolog.Logger) *Handler {
	return &Handler{
		out:   out,
		log:   log,
		repos: make(map[*repository.Repository]func()),
	}
}

// FollowDecorations broadcasts every change published on bus.
func (h *Handler) FollowDecorations(bus *decoration.Bus) {
	unsub := bus.Subscribe(func(c decoration.Change) {
		h.send(MessageTypeDecorations, c)
	})
	h.track(unsub)
}

// FollowRegistry broadcasts repositories opening and closing, and the
// state-changing operations of every open repository.
func (h *Handler) FollowRegistry(reg *registry.Registry) {
	h.track(reg.OnDidOpen(func(repo *repository.Repository) {
		h.attach(repo)
		h.send(MessageTypeRepository, RepositoryData{Action: "opened", Repository: Describe(repo)})
	}))
	h.track(reg.OnDidClose(func(repo *repository.Repository) {
		h.detach(repo)
		h.send(MessageTypeRepository, RepositoryData{Action: "closed", Repository: RepositoryInfo{Root: repo.Root()}})
	}))
	for _, repo := range reg.List() {
		h.attach(repo)
	}
}

// OnAutofetchChange broadcasts an autofetch transition.
func (h *Handler) OnAutofetchChange(root string, enabled bool) {
	h.send(MessageTypeAutofetch, AutofetchData{Root: root, Enabled: enabled})
}

func (h *Handler) attach(repo *repository.Repository) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.repos[repo]; ok {
		return
	}
	root := repo.Root()
	h.repos[repo] = repo.Subscribe(func(e repository.Event) {
		if e.Operation.ReadOnly() {
			return
		}
		data := OperationData{Root: root, Operation: string(e.Operation)}
		if e.Err != nil {
			data.Error = e.Err.Error()
		}
		h.send(MessageTypeOperation, data)
	})
}

func (h *Handler) detach(repo *repository.Repository) {
	h.mu.Lock()
	unsub, ok := h.repos[repo]
	delete(h.repos, repo)
	h.mu.Unlock()
	if ok {
		unsub()
	}
}

func (h *Handler) track(unsub func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubs = append(h.unsubs, unsub)
}

func (h *Handler) send(t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		h.log.Error().Err(err).Msg("format dashboard message")
		return
	}
	h.out.Broadcast(msg)
}

// Close drops every subscription.
func (h *Handler) Close() {
	h.mu.Lock()
	unsubs := h.unsubs
	h.unsubs = nil
	for _, unsub := range h.repos {
		unsubs = append(unsubs, unsub)
	}
	h.repos = make(map[*repository.Repository]func())
	h.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
