package repository

import (
	"path/filepath"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// GroupType names the resource group a change belongs to.
type GroupType int

const (
	GroupIndex GroupType = iota
	GroupWorkingTree
	GroupMerge
)

func (g GroupType) String() string {
	switch g {
	case GroupIndex:
		return "index"
	case GroupWorkingTree:
		return "workingTree"
	case GroupMerge:
		return "merge"
	default:
		return "unknown"
	}
}

// Status is the kind of change a resource carries.
type Status int

const (
	IndexModified Status = iota
	IndexAdded
	IndexDeleted
	IndexRenamed
	IndexCopied

	Modified
	Deleted
	Untracked
	Ignored

	AddedByUs
	AddedByThem
	DeletedByUs
	DeletedByThem
	BothAdded
	BothDeleted
	BothModified
)

var statusNames = map[Status]string{
	IndexModified: "Index Modified",
	IndexAdded:    "Index Added",
	IndexDeleted:  "Index Deleted",
	IndexRenamed:  "Index Renamed",
	IndexCopied:   "Index Copied",
	Modified:      "Modified",
	Deleted:       "Deleted",
	Untracked:     "Untracked",
	Ignored:       "Ignored",
	AddedByUs:     "Added By Us",
	AddedByThem:   "Added By Them",
	DeletedByUs:   "Deleted By Us",
	DeletedByThem: "Deleted By Them",
	BothAdded:     "Both Added",
	BothDeleted:   "Both Deleted",
	BothModified:  "Both Modified",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// IsConflict reports whether s is one of the unmerged states.
func (s Status) IsConflict() bool {
	return s >= AddedByUs
}

// Resource is one changed path inside a resource group.
type Resource struct {
	// URI is the absolute path the change is tracked under. For renames
	// and copies this is the source path.
	URI string

	// RenameURI is the destination of a rename or copy.
	RenameURI string

	Group  GroupType
	Status Status
}

// ResourceURI returns the path the resource currently lives at.
func (r Resource) ResourceURI() string {
	if r.RenameURI != "" {
		switch r.Status {
		case Modified, Deleted, IndexRenamed, IndexCopied:
			return r.RenameURI
		}
	}
	return r.URI
}

// Decoration is how a resource is rendered in file listings.
type Decoration struct {
	Letter        string `json:"letter" yaml:"letter"`
	Color         string `json:"color" yaml:"color"`
	Priority      int    `json:"priority" yaml:"priority"`
	StrikeThrough bool   `json:"strikeThrough,omitempty" yaml:"strikeThrough,omitempty"`
	Faded         bool   `json:"faded,omitempty" yaml:"faded,omitempty"`
	Tooltip       string `json:"tooltip" yaml:"tooltip"`
}

// Decoration returns the resource's decoration.
func (r Resource) Decoration() Decoration {
	return Decoration{
		Letter:        r.letter(),
		Color:         r.color(),
		Priority:      r.priority(),
		StrikeThrough: r.strikeThrough(),
		Faded:         r.Status == Ignored,
		Tooltip:       r.Status.String(),
	}
}

func (r Resource) letter() string {
	switch r.Status {
	case IndexModified, Modified:
		return "M"
	case IndexAdded:
		return "A"
	case IndexDeleted, Deleted:
		return "D"
	case IndexRenamed:
		return "R"
	case Untracked:
		return "U"
	case Ignored:
		return "I"
	case IndexCopied, BothDeleted, AddedByUs, DeletedByThem, AddedByThem, DeletedByUs, BothAdded, BothModified:
		return "C"
	default:
		return ""
	}
}

func (r Resource) color() string {
	switch r.Status {
	case IndexModified, Modified:
		return "gitDecoration.modifiedResourceForeground"
	case IndexDeleted, Deleted:
		return "gitDecoration.deletedResourceForeground"
	case IndexAdded, IndexRenamed, IndexCopied, Untracked:
		return "gitDecoration.untrackedResourceForeground"
	case Ignored:
		return "gitDecoration.ignoredResourceForeground"
	default:
		return "gitDecoration.conflictingResourceForeground"
	}
}

func (r Resource) priority() int {
	switch {
	case r.Status == IndexModified || r.Status == Modified:
		return 2
	case r.Status == Ignored:
		return 3
	case r.Status.IsConflict():
		return 4
	default:
		return 1
	}
}

func (r Resource) strikeThrough() bool {
	switch r.Status {
	case IndexDeleted, Deleted, BothDeleted, DeletedByThem, DeletedByUs:
		return true
	}
	return false
}

// Groups holds the three resource groups of a repository.
type Groups struct {
	Index       []Resource
	WorkingTree []Resource
	Merge       []Resource
}

// All returns index, working tree and merge resources in that order.
func (g Groups) All() []Resource {
	out := make([]Resource, 0, len(g.Index)+len(g.WorkingTree)+len(g.Merge))
	out = append(out, g.Index...)
	out = append(out, g.WorkingTree...)
	return append(out, g.Merge...)
}

// Find returns the resource at path in group.
func (g Groups) Find(group GroupType, path string) (Resource, bool) {
	var list []Resource
	switch group {
	case GroupIndex:
		list = g.Index
	case GroupWorkingTree:
		list = g.WorkingTree
	case GroupMerge:
		list = g.Merge
	}
	for _, r := range list {
		if r.URI == path || r.ResourceURI() == path {
			return r, true
		}
	}
	return Resource{}, false
}

var mergeStatuses = map[string]Status{
	"DD": BothDeleted,
	"AU": AddedByUs,
	"UD": DeletedByThem,
	"UA": AddedByThem,
	"DU": DeletedByUs,
	"AA": BothAdded,
	"UU": BothModified,
}

// groupStatus sorts porcelain status entries into resource groups. Paths
// become absolute under root.
func groupStatus(root string, files []vcs.FileStatus) Groups {
	var g Groups

	abs := func(p string) string {
		if p == "" {
			return ""
		}
		return filepath.Join(root, filepath.FromSlash(p))
	}

	for _, f := range files {
		uri := abs(f.Path)
		rename := ""
		if f.OrigPath != "" {
			uri, rename = abs(f.OrigPath), abs(f.Path)
		}

		switch f.Code() {
		case "??":
			g.WorkingTree = append(g.WorkingTree, Resource{URI: uri, Group: GroupWorkingTree, Status: Untracked})
			continue
		case "!!":
			g.WorkingTree = append(g.WorkingTree, Resource{URI: uri, Group: GroupWorkingTree, Status: Ignored})
			continue
		}
		if s, ok := mergeStatuses[f.Code()]; ok {
			g.Merge = append(g.Merge, Resource{URI: uri, Group: GroupMerge, Status: s})
			continue
		}

		switch f.StagedCode {
		case vcs.StatusModified:
			g.Index = append(g.Index, Resource{URI: uri, Group: GroupIndex, Status: IndexModified})
		case vcs.StatusAdded:
			g.Index = append(g.Index, Resource{URI: uri, Group: GroupIndex, Status: IndexAdded})
		case vcs.StatusDeleted:
			g.Index = append(g.Index, Resource{URI: uri, Group: GroupIndex, Status: IndexDeleted})
		case vcs.StatusRenamed:
			g.Index = append(g.Index, Resource{URI: uri, RenameURI: rename, Group: GroupIndex, Status: IndexRenamed})
		case vcs.StatusCopied:
			g.Index = append(g.Index, Resource{URI: uri, RenameURI: rename, Group: GroupIndex, Status: IndexCopied})
		}

		switch f.Status {
		case vcs.StatusModified:
			g.WorkingTree = append(g.WorkingTree, Resource{URI: uri, RenameURI: rename, Group: GroupWorkingTree, Status: Modified})
		case vcs.StatusDeleted:
			g.WorkingTree = append(g.WorkingTree, Resource{URI: uri, RenameURI: rename, Group: GroupWorkingTree, Status: Deleted})
		}
	}

	return g
}
