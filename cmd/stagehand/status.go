package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Mschirtzinger/stagehand/internal/repository"
	"github.com/Mschirtzinger/stagehand/internal/ui"
)

// fileReport is one changed path of a status report.
type fileReport struct {
	Path       string                `json:"path" yaml:"path"`
	RenamedTo  string                `json:"renamedTo,omitempty" yaml:"renamedTo,omitempty"`
	Status     string                `json:"status" yaml:"status"`
	Decoration repository.Decoration `json:"decoration" yaml:"decoration"`
}

// statusReport is the status of one repository.
type statusReport struct {
	Root        string       `json:"root" yaml:"root"`
	Branch      string       `json:"branch,omitempty" yaml:"branch,omitempty"`
	Upstream    string       `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Ahead       int          `json:"ahead" yaml:"ahead"`
	Behind      int          `json:"behind" yaml:"behind"`
	Merge       []fileReport `json:"merge" yaml:"merge"`
	Index       []fileReport `json:"index" yaml:"index"`
	WorkingTree []fileReport `json:"workingTree" yaml:"workingTree"`
}

func newStatusReport(repo *repository.Repository) statusReport {
	groups := repo.Groups()
	report := statusReport{
		Root:        repo.Root(),
		Merge:       fileReports(repo.Root(), groups.Merge),
		Index:       fileReports(repo.Root(), groups.Index),
		WorkingTree: fileReports(repo.Root(), groups.WorkingTree),
	}
	if head := repo.Head(); head != nil {
		report.Branch = head.Name
		if report.Branch == "" && head.Commit != "" {
			report.Branch = short(head.Commit)
		}
		report.Ahead = head.Ahead
		report.Behind = head.Behind
		if up := head.Upstream; up != nil {
			report.Upstream = up.Remote + "/" + up.Name
		}
	}
	return report
}

func fileReports(root string, resources []repository.Resource) []fileReport {
	out := make([]fileReport, 0, len(resources))
	for _, r := range resources {
		f := fileReport{
			Path:       relTo(root, r.URI),
			Status:     r.Status.String(),
			Decoration: r.Decoration(),
		}
		if r.RenameURI != "" {
			f.RenamedTo = relTo(root, r.RenameURI)
		}
		out = append(out, f)
	}
	return out
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// writeStatus writes reports to w in format: text, json or yaml.
func writeStatus(w io.Writer, r *ui.Renderer, format string, reports []statusReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(reports)
	case "text", "":
		for i, report := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeStatusText(w, r, report)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func writeStatusText(w io.Writer, r *ui.Renderer, report statusReport) {
	head := report.Branch
	if head == "" {
		head = "(no commits)"
	}
	if report.Upstream != "" {
		head += r.Muted.Render(fmt.Sprintf(" ↑%d ↓%d %s", report.Ahead, report.Behind, report.Upstream))
	}
	fmt.Fprintf(w, "%s %s\n", r.Title.Render(report.Root), head)

	sections := []struct {
		title string
		files []fileReport
	}{
		{"Merge Changes", report.Merge},
		{"Staged Changes", report.Index},
		{"Changes", report.WorkingTree},
	}
	clean := true
	for _, s := range sections {
		if len(s.files) == 0 {
			continue
		}
		clean = false
		fmt.Fprintf(w, "  %s\n", r.Title.Render(s.title))
		for _, f := range s.files {
			d := f.Decoration
			path := f.Path
			if f.RenamedTo != "" {
				path += " → " + f.RenamedTo
			}
			fmt.Fprintf(w, "    %s %s\n", r.Decoration(d.Letter, d.Color, d.StrikeThrough, d.Faded), path)
		}
	}
	if clean {
		fmt.Fprintf(w, "  %s\n", r.Success.Render("nothing to commit, working tree clean"))
	}
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "changes",
	Short:   "Show the resource groups of open repositories",
	Long: `Show merge, staged and unstaged changes of every open repository, or of
the repository given with --repo.

Each path carries its decoration letter. Machine-readable output keeps the
full decoration (letter, colour token, priority, tooltip).

Examples:
  stagehand status
  stagehand status --format json
  stagehand -C ../other status --format yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		ctx := cmd.Context()

		repos := reg.List()
		if repoFlag != "" {
			repos = nil
			if repo := reg.Get(repoPath()); repo != nil {
				repos = append(repos, repo)
			}
		}
		if len(repos) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no repository found")
			os.Exit(1)
		}

		reports := make([]statusReport, 0, len(repos))
		for _, repo := range repos {
			if err := repo.Status(ctx); err != nil {
				logger.Warn().Err(err).Str("repo", repo.Root()).Msg("refresh status")
			}
			reports = append(reports, newStatusReport(repo))
		}

		if err := writeStatus(os.Stdout, render, format, reports); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	statusCmd.Flags().String("format", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(statusCmd)
}
