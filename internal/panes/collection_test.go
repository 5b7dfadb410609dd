package panes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tettuan/tmux-monitor/internal/errkind"
	"github.com/tettuan/tmux-monitor/internal/pane"
	"github.com/tettuan/tmux-monitor/internal/paneid"
	"github.com/tettuan/tmux-monitor/internal/tmux"
)

func mustPane(t *testing.T, id string, active bool) *pane.Pane {
	t.Helper()
	activeFlag := "0"
	if active {
		activeFlag = "1"
	}
	p, err := pane.FromDiscovery(tmux.RawPane{PaneID: id, Active: activeFlag, CurrentCommand: "zsh"})
	require.NoError(t, err)
	return p
}

func TestAdd_DuplicateRejected(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(mustPane(t, "%1", false)))
	err := c.Add(mustPane(t, "%1", false))
	assert.True(t, errkind.Is(err, errkind.IllegalState))
}

func TestAllSortedByNumericID_NumericNotLexicographic(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(mustPane(t, "%10", false)))
	require.NoError(t, c.Add(mustPane(t, "%2", false)))
	require.NoError(t, c.Add(mustPane(t, "%1", false)))

	sorted := c.AllSortedByNumericID()
	ids := make([]string, len(sorted))
	for i, p := range sorted {
		ids[i] = p.ID().String()
	}
	assert.Equal(t, []string{"%1", "%2", "%10"}, ids)
}

func TestActive_ReturnsFocusedPane(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(mustPane(t, "%1", false)))
	require.NoError(t, c.Add(mustPane(t, "%2", true)))

	active := c.Active()
	require.NotNil(t, active)
	assert.Equal(t, "%2", active.ID().String())
}

func TestActive_NilWhenNoneFocused(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(mustPane(t, "%1", false)))
	assert.Nil(t, c.Active())
}

func TestAssignRoles_OrderedTemplate(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(mustPane(t, "%2", false)))
	require.NoError(t, c.Add(mustPane(t, "%0", false)))
	require.NoError(t, c.Add(mustPane(t, "%1", false)))

	result := c.AssignRoles()
	assert.Equal(t, 3, result.Assigned)
	assert.Equal(t, 0, result.Skipped)

	sorted := c.AllSortedByNumericID()
	assert.Equal(t, "main", sorted[0].Role().Name())
	assert.Equal(t, "manager1", sorted[1].Role().Name())
	assert.Equal(t, "manager2", sorted[2].Role().Name())
}

func TestAssignRoles_PartialSuccessOnRejection(t *testing.T) {
	c := New()
	p0 := mustPane(t, "%0", false)
	require.NoError(t, c.Add(p0))

	// Pre-assign a role that will conflict with the computed one ("main").
	require.NoError(t, p0.AssignRole(paneid.AssignRole(3))) // secretary

	result := c.AssignRoles()
	assert.Equal(t, 0, result.Assigned)
	assert.Equal(t, 1, result.Skipped)
}

func TestReplaceAll_Atomic(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(mustPane(t, "%1", false)))
	assert.Equal(t, 1, c.Len())

	c.ReplaceAll([]*pane.Pane{mustPane(t, "%5", false), mustPane(t, "%6", false)})
	assert.Equal(t, 2, c.Len())
	assert.Nil(t, c.Get(paneid.MustParse("%1")))
}
