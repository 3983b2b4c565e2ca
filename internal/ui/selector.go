package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vietdv277/awsfree/pkg/types"
)

// ErrSelectionCancelled is returned when the user leaves the selector
// without choosing
var ErrSelectionCancelled = errors.New("selection cancelled")

const (
	pageSize     = 8
	labelWidth   = 12
	minInner     = 60
	maxInner     = 120
	idColumn     = 21
	ipColumn     = 15
	stateColumn  = 15
	minNameWidth = 10
)

// columns holds the widths of the list columns inside the box
type columns struct {
	id, ip, state, name int
}

// Model is the bubbletea model behind SelectInstance. Typing narrows the list,
// Tab toggles between all instances and running ones only.
type Model struct {
	title string
	all   []types.Instance

	visible     []types.Instance
	query       string
	onlyRunning bool

	cursor int
	top    int // first visible row

	chosen  *types.Instance
	done    bool
	aborted bool

	inner int // width inside the box borders
	cols  columns
}

// NewModel creates a selector over instances
func NewModel(title string, instances []types.Instance) Model {
	m := Model{
		title:   title,
		all:     instances,
		visible: instances,
	}
	m.resize(80)
	return m
}

// Selected returns the chosen instance, or nil
func (m Model) Selected() *types.Instance {
	return m.chosen
}

// Cancelled reports whether the user quit without choosing
func (m Model) Cancelled() bool {
	return m.aborted
}

func (m *Model) resize(termWidth int) {
	m.inner = min(max(termWidth-2, minInner), maxInner)

	// cursor marker, three gaps, the name column takes what is left
	fixed := 3 + idColumn + ipColumn + stateColumn + 3*2
	m.cols = columns{
		id:    idColumn,
		ip:    ipColumn,
		state: stateColumn,
		name:  max(m.inner-fixed, minNameWidth),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.done, m.aborted = true, true
		return m, tea.Quit

	case tea.KeyEnter:
		if len(m.visible) == 0 {
			return m, nil
		}
		inst := m.visible[m.cursor]
		m.chosen = &inst
		m.done = true
		return m, tea.Quit

	case tea.KeyUp:
		m.moveTo(m.cursor - 1)
	case tea.KeyDown:
		m.moveTo(m.cursor + 1)
	case tea.KeyPgUp:
		m.moveTo(m.cursor - pageSize)
	case tea.KeyPgDown:
		m.moveTo(m.cursor + pageSize)
	case tea.KeyHome:
		m.moveTo(0)
	case tea.KeyEnd:
		m.moveTo(len(m.visible) - 1)

	case tea.KeyTab:
		m.onlyRunning = !m.onlyRunning
		m.refilter()

	case tea.KeyBackspace:
		if m.query != "" {
			r := []rune(m.query)
			m.query = string(r[:len(r)-1])
			m.refilter()
		}

	case tea.KeyRunes, tea.KeySpace:
		m.query += string(msg.Runes)
		m.refilter()
	}
	return m, nil
}

// moveTo places the cursor on row i, clamped to the list, and scrolls so
// that it stays in view
func (m *Model) moveTo(i int) {
	if len(m.visible) == 0 {
		m.cursor, m.top = 0, 0
		return
	}
	m.cursor = min(max(i, 0), len(m.visible)-1)

	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+pageSize {
		m.top = m.cursor - pageSize + 1
	}
}

func (m *Model) refilter() {
	q := strings.ToLower(strings.TrimSpace(m.query))

	m.visible = nil
	for _, inst := range m.all {
		if m.onlyRunning && !inst.IsRunning() {
			continue
		}
		if q == "" || matches(inst, q) {
			m.visible = append(m.visible, inst)
		}
	}

	m.top = 0
	m.moveTo(m.cursor)
}

// matches reports whether the lower-cased query appears in the instance's
// name, id, addresses or type
func matches(inst types.Instance, q string) bool {
	for _, field := range []string{inst.Name, inst.ID, inst.PublicIP, inst.PrivateIP, inst.Type} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// View implements tea.Model
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder

	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title) + "\n")
	}

	m.rule(&b, TopLeft, TopRight)
	m.row(&b, NameStyle.Render(padRight(" > "+m.query, m.inner)))
	m.blank(&b)

	end := min(m.top+pageSize, len(m.visible))
	for i := m.top; i < end; i++ {
		m.row(&b, m.listRow(i))
	}
	for i := end - m.top; i < pageSize; i++ {
		m.blank(&b)
	}
	m.blank(&b)

	m.rule(&b, LeftT, RightT)
	m.details(&b)
	m.rule(&b, BottomLeft, BottomRight)

	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) rule(b *strings.Builder, left, right string) {
	b.WriteString(BorderStyle.Render(left+strings.Repeat(Horizontal, m.inner)+right) + "\n")
}

func (m Model) row(b *strings.Builder, content string) {
	b.WriteString(BorderStyle.Render(Vertical) + content + BorderStyle.Render(Vertical) + "\n")
}

func (m Model) blank(b *strings.Builder) {
	m.row(b, strings.Repeat(" ", m.inner))
}

func (m Model) listRow(i int) string {
	inst := m.visible[i]

	marker := "   "
	if i == m.cursor {
		marker = " > "
	}

	cells := []struct {
		text  string
		width int
		style lipgloss.Style
	}{
		{inst.ID, m.cols.id, IDStyle},
		{formatOptional(inst.PublicIP), m.cols.ip, IPStyle},
		{stateIndicator(inst.State) + " " + string(inst.State), m.cols.state, StateStyle(inst.State)},
		{formatOptional(inst.Name), m.cols.name, NameStyle},
	}

	var line strings.Builder
	line.WriteString(marker)
	used := len(marker)
	for j, c := range cells {
		if j > 0 {
			line.WriteString("  ")
			used += 2
		}
		line.WriteString(c.style.Render(padRight(c.text, c.width)))
		used += c.width
	}

	if used < m.inner {
		line.WriteString(strings.Repeat(" ", m.inner-used))
	}
	return line.String()
}

func (m Model) details(b *strings.Builder) {
	m.row(b, HeaderStyle.Render(padRight(" Instance Details", m.inner)))
	m.row(b, MutedStyle.Render(padRight(" "+strings.Repeat(Horizontal, 20), m.inner)))

	if len(m.visible) == 0 {
		m.row(b, MutedStyle.Render(padRight(" No instances match", m.inner)))
		m.blank(b)
		return
	}

	inst := m.visible[m.cursor]
	fields := []struct {
		label, value string
		style        lipgloss.Style
	}{
		{"ID:", inst.ID, IDStyle},
		{"Name:", formatOptional(inst.Name), NameStyle},
		{"Type:", inst.Type, TypeStyle},
		{"State:", string(inst.State), StateStyle(inst.State)},
		{"Public IP:", formatOptional(inst.PublicIP), IPStyle},
		{"Private IP:", formatOptional(inst.PrivateIP), IPStyle},
		{"Zone:", formatOptional(inst.AZ), MutedStyle},
		{"Key pair:", formatOptional(inst.KeyName), NameStyle},
		{"Launched:", formatTime(inst.LaunchTime), MutedStyle},
	}

	room := m.inner - 1 - labelWidth
	for _, f := range fields {
		value := runewidth.Truncate(f.value, room, "...")
		used := 1 + labelWidth + runewidth.StringWidth(value)

		line := MutedStyle.Render(" "+padRight(f.label, labelWidth)) + f.style.Render(value)
		if used < m.inner {
			line += strings.Repeat(" ", m.inner-used)
		}
		m.row(b, line)
	}
	m.blank(b)
}

func (m Model) statusBar() string {
	count := fmt.Sprintf("  %d/%d instances", len(m.visible), len(m.all))
	if m.onlyRunning {
		count += " (running)"
	}
	keys := "[Enter:select] [Tab:running only] [Esc:cancel]"

	gap := m.inner + 2 - runewidth.StringWidth(count) - runewidth.StringWidth(keys)
	return count + strings.Repeat(" ", max(gap, 1)) + HintStyle.Render(keys) + "\n"
}

// SelectInstance runs the selector on in/out and returns the chosen instance
func SelectInstance(in io.Reader, out io.Writer, title string, instances []types.Instance) (*types.Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no instances to select from")
	}

	final, err := tea.NewProgram(NewModel(title, instances), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return nil, fmt.Errorf("instance selector failed: %w", err)
	}

	m := final.(Model)
	if m.Cancelled() || m.Selected() == nil {
		return nil, ErrSelectionCancelled
	}
	return m.Selected(), nil
}
