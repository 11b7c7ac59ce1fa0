package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Mschirtzinger/stagehand/internal/staging"
)

func TestParseLines(t *testing.T) {
	tests := []struct {
		spec string
		want []staging.Range
	}{
		{"3", []staging.Range{{Start: staging.Position{Line: 2}, End: staging.Position{Line: 2}}}},
		{"1-4", []staging.Range{{Start: staging.Position{Line: 0}, End: staging.Position{Line: 3}}}},
		{"2-3, 10", []staging.Range{
			{Start: staging.Position{Line: 1}, End: staging.Position{Line: 2}},
			{Start: staging.Position{Line: 9}, End: staging.Position{Line: 9}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseLines(tt.spec)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseLines(%q) mismatch (-want +got):\n%s", tt.spec, diff)
			}
		})
	}
}

func TestParseLinesRejects(t *testing.T) {
	for _, spec := range []string{"", "0", "a-b", "5-2", "-3", ","} {
		_, err := parseLines(spec)
		require.Error(t, err, spec)
	}
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		change staging.LineChange
		want   string
	}{
		{staging.LineChange{OriginalStart: 0, OriginalEnd: 1, ModifiedStart: 0, ModifiedEnd: 1}, "-1 +1"},
		{staging.LineChange{OriginalStart: 2, OriginalEnd: 2, ModifiedStart: 2, ModifiedEnd: 4}, "-2,0 +3-4"},
		{staging.LineChange{OriginalStart: 3, OriginalEnd: 5, ModifiedStart: 3, ModifiedEnd: 3}, "-4-5 +3,0"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatChange(tt.change))
	}
}
