package git

import "github.com/Mschirtzinger/stagehand/internal/vcs"

// init registers the git backend with the factory.
//
//	import _ "github.com/Mschirtzinger/stagehand/internal/vcs/git" // Auto-registers via init()
func init() {
	vcs.Register(vcs.TypeGit, func(path string) (vcs.Backend, error) {
		return New(path)
	})
}
