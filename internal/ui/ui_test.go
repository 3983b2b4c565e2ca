package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/awsfree/pkg/types"
)

func fixtures() []types.Instance {
	return []types.Instance{
		{ID: "i-0aaa", Name: "free-tier", State: types.InstanceStateRunning, Type: "t3.micro", PublicIP: "203.0.113.10", LaunchTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "i-0bbb", Name: "scratch", State: types.InstanceStateStopped, Type: "t3.micro"},
	}
}

func TestPrintInstanceTable(t *testing.T) {
	var buf bytes.Buffer
	PrintInstanceTable(&buf, fixtures())

	out := buf.String()
	for _, want := range []string{"ID", "Public IP", "Launched", "i-0aaa", "i-0bbb", "203.0.113.10", "free-tier", "running", "stopped"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "2 instances")
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(fixtures()[:1]), "1 instance")
	assert.Contains(t, Summary(fixtures()), "1 running")
	assert.Contains(t, Summary(fixtures()), "1 stopped")
	assert.Contains(t, Summary(nil), "0 instances")
}

func TestPrintInstanceDetails(t *testing.T) {
	var buf bytes.Buffer
	inst := fixtures()[1]
	PrintInstanceDetails(&buf, &inst)

	out := buf.String()
	assert.Contains(t, out, "i-0bbb")
	assert.Contains(t, out, padRight("Public IP:", labelWidth)+"-")
	// Missing values render as a dash
	assert.True(t, strings.Contains(out, "-"))
}

func TestModelSelect(t *testing.T) {
	m := NewModel("Select an instance", fixtures())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.(Model).Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	result := next.(Model)
	require.NotNil(t, result.Selected())
	assert.Equal(t, "i-0bbb", result.Selected().ID)
	assert.False(t, result.Cancelled())
}

func TestModelSearch(t *testing.T) {
	m := NewModel("", fixtures())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("scr")})
	result := next.(Model)
	require.Len(t, result.visible, 1)
	assert.Equal(t, "i-0bbb", result.visible[0].ID)
	assert.Contains(t, result.View(), "1/2 instances")
}

func TestModelCancel(t *testing.T) {
	m := NewModel("", fixtures())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	result := next.(Model)
	assert.True(t, result.Cancelled())
	assert.Nil(t, result.Selected())
	assert.Empty(t, result.View())
}

func TestModelRunningOnly(t *testing.T) {
	m := NewModel("", fixtures())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.(Model).Update(tea.KeyMsg{Type: tea.KeyTab})
	result := next.(Model)
	require.Len(t, result.visible, 1)
	assert.Equal(t, "i-0aaa", result.visible[0].ID)
	assert.Zero(t, result.cursor)
	assert.Contains(t, result.View(), "(running)")

	next, _ = result.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Len(t, next.(Model).visible, 2)
}

func TestModelNoMatchIgnoresEnter(t *testing.T) {
	m := NewModel("", fixtures())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("nothing")})
	next, cmd := next.(Model).Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Nil(t, next.(Model).Selected())
	assert.Contains(t, next.(Model).View(), "No instances match")
}
