package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoTakesDefaults(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	a := NewAuto(&out)

	v, err := a.Input(ctx, InputOptions{Title: "Branch name", Value: "feature"})
	require.NoError(t, err)
	assert.Equal(t, "feature", v)

	v, err = a.Input(ctx, InputOptions{Title: "Stash message"})
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = a.Input(ctx, InputOptions{Value: "bad", Validate: func(string) error { return errors.New("no") }})
	assert.ErrorIs(t, err, ErrCancelled)

	item, err := a.Pick(ctx, "Ref", []Item{{Label: "main"}, {Label: "dev"}})
	require.NoError(t, err)
	assert.Equal(t, "main", item.Label)

	_, err = a.Pick(ctx, "Ref", nil)
	assert.ErrorIs(t, err, ErrCancelled)

	choice, err := a.Warn(ctx, "Stage conflicts?", "Yes", "No")
	require.NoError(t, err)
	assert.Equal(t, "Yes", choice)

	choice, err = a.Info(ctx, "Done")
	require.NoError(t, err)
	assert.Empty(t, choice)
	assert.Contains(t, out.String(), "warning: Stage conflicts?")
	assert.Contains(t, out.String(), "info: Done")
}

func TestRendererPlainWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out)

	assert.Equal(t, "M", r.Decoration("M", "gitDecoration.modifiedResourceForeground", false, false))
	assert.Equal(t, "D", r.Decoration("D", "gitDecoration.deletedResourceForeground", true, false))
	assert.Equal(t, "title", r.Title.Render("title"))
}
