package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vietdv277/awsfree/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// Column widths: ID, Type, State, Public IP, Name, Launched
var columnWidths = []int{19, 10, 15, 15, 18, 19}

// PrintInstanceTable writes instances as a styled box table followed by a
// summary line
func PrintInstanceTable(w io.Writer, instances []types.Instance) {
	headers := []string{"ID", "Type", "State", "Public IP", "Name", "Launched"}

	var sb strings.Builder

	// Top border
	writeRule(&sb, TopLeft, TopT, TopRight)

	// Header row
	sb.WriteString(BorderStyle.Render(Vertical))
	for i, h := range headers {
		sb.WriteString(HeaderStyle.Render(" " + padRight(h, columnWidths[i]) + " "))
		sb.WriteString(BorderStyle.Render(Vertical))
	}
	sb.WriteString("\n")

	// Header separator
	writeRule(&sb, LeftT, Cross, RightT)

	// Data rows
	for _, inst := range instances {
		cells := []struct {
			text  string
			style lipgloss.Style
		}{
			{inst.ID, IDStyle},
			{inst.Type, TypeStyle},
			{stateIndicator(inst.State) + " " + string(inst.State), StateStyle(inst.State)},
			{formatOptional(inst.PublicIP), IPStyle},
			{formatOptional(inst.Name), NameStyle},
			{formatTime(inst.LaunchTime), MutedStyle},
		}

		sb.WriteString(BorderStyle.Render(Vertical))
		for i, c := range cells {
			sb.WriteString(c.style.Render(" " + padRight(c.text, columnWidths[i]) + " "))
			sb.WriteString(BorderStyle.Render(Vertical))
		}
		sb.WriteString("\n")
	}

	// Bottom border
	writeRule(&sb, BottomLeft, BottomT, BottomRight)

	fmt.Fprint(w, sb.String())

	// Summary
	fmt.Fprintln(w, Summary(instances))
}

func writeRule(sb *strings.Builder, left, mid, right string) {
	sb.WriteString(BorderStyle.Render(left))
	for i, w := range columnWidths {
		sb.WriteString(BorderStyle.Render(strings.Repeat(Horizontal, w+2)))
		if i < len(columnWidths)-1 {
			sb.WriteString(BorderStyle.Render(mid))
		}
	}
	sb.WriteString(BorderStyle.Render(right))
	sb.WriteString("\n")
}

// Summary returns a one-line count of instances by state
func Summary(instances []types.Instance) string {
	counts := make(map[types.InstanceState]int)
	for _, inst := range instances {
		counts[inst.State]++
	}

	var parts []string
	for _, state := range []types.InstanceState{
		types.InstanceStateRunning,
		types.InstanceStatePending,
		types.InstanceStateStopping,
		types.InstanceStateStopped,
		types.InstanceStateShuttingDown,
	} {
		if c := counts[state]; c > 0 {
			parts = append(parts, StateStyle(state).Render(fmt.Sprintf("%d %s", c, state)))
		}
	}

	noun := "instances"
	if len(instances) == 1 {
		noun = "instance"
	}

	summary := fmt.Sprintf("  %d %s", len(instances), noun)
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	return summary
}

// PrintInstanceDetails writes a label/value block for one instance
func PrintInstanceDetails(w io.Writer, inst *types.Instance) {
	details := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"ID:", inst.ID, IDStyle},
		{"Name:", formatOptional(inst.Name), NameStyle},
		{"Type:", inst.Type, TypeStyle},
		{"State:", string(inst.State), StateStyle(inst.State)},
		{"Public IP:", formatOptional(inst.PublicIP), IPStyle},
		{"Private IP:", formatOptional(inst.PrivateIP), IPStyle},
		{"AZ:", formatOptional(inst.AZ), TypeStyle},
		{"Key pair:", formatOptional(inst.KeyName), NameStyle},
		{"Launched:", formatTime(inst.LaunchTime), MutedStyle},
	}

	for _, d := range details {
		fmt.Fprintf(w, "  %s%s\n", MutedStyle.Render(padRight(d.label, labelWidth)), d.style.Render(d.value))
	}
}

// PrintKeyValues writes aligned label/value pairs
func PrintKeyValues(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "  %s  %s\n", MutedStyle.Render(padRight(p[0], width)), p[1])
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
