package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValue(t *testing.T) {
	assert.Equal(t, true, configValue("on"))
	assert.Equal(t, false, configValue("False"))
	assert.Equal(t, "tags", configValue("tags"))
	assert.Equal(t, "5m", configValue("5m"))
}

func TestCommandGroups(t *testing.T) {
	groups := map[string]bool{}
	for _, g := range rootCmd.Groups() {
		groups[g.ID] = true
	}
	for _, cmd := range rootCmd.Commands() {
		if cmd.GroupID == "" {
			continue
		}
		assert.True(t, groups[cmd.GroupID], "%s has unknown group %q", cmd.Name(), cmd.GroupID)
	}

	for _, name := range []string{"stage-lines", "commit", "sync-all", "watch", "status"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}
