package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/staging"
)

// parseLines turns a 1-based, inclusive line list like "3-7,12" into
// selections.
func parseLines(spec string) ([]staging.Range, error) {
	var out []staging.Range
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to, isRange := strings.Cut(part, "-")
		start, err := parseLine(from)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parseLine(to); err != nil {
				return nil, err
			}
		}
		if end < start {
			return nil, fmt.Errorf("invalid line range %q: end before start", part)
		}

		out = append(out, staging.Range{
			Start: staging.Position{Line: start - 1},
			End:   staging.Position{Line: end - 1},
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no lines in %q", spec)
	}
	return out, nil
}

func parseLine(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid line number %q", s)
	}
	return n, nil
}
