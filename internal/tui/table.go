package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/gerunddev/planbridge/internal/tools"
)

// Column widths of the plan table; the name column takes what is left.
const (
	idWidth     = 8
	statusWidth = 16
	phaseWidth  = 7
	scopeWidth  = 6
	minName     = 12
)

// renderTable renders one row per plan, highlighting the selected row.
func renderTable(plans []tools.PlanSummary, selected, width int) string {
	nameWidth := width - idWidth - statusWidth - phaseWidth - scopeWidth - 8
	if nameWidth < minName {
		nameWidth = minName
	}

	var b strings.Builder
	b.WriteString(columnHeaderStyle.Render("  " + formatRow("ID", "NAME", "STATUS", "PHASE", "SCOPE", nameWidth)))
	b.WriteString("\n")

	for i, s := range plans {
		phase := "-"
		if s.IsPhased {
			phase = fmt.Sprintf("%d/%d", s.PhasesCompleted, s.PhaseCount)
		}
		left := pad(shortID(s.ID), idWidth) + " " + pad(s.Name, nameWidth) + " "
		right := " " + pad(phase, phaseWidth) + " " + pad(string(s.Scope), scopeWidth)
		status := StatusStyle(s.Status).Render(pad(string(s.Status), statusWidth))

		style := rowStyle
		marker := "  "
		if i == selected {
			style = selectedRowStyle
			marker = "▶ "
		}
		b.WriteString(style.Render(marker+left) + status + style.Render(right))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRow(id, name, status, phase, scope string, nameWidth int) string {
	return strings.Join([]string{
		pad(id, idWidth),
		pad(name, nameWidth),
		pad(status, statusWidth),
		pad(phase, phaseWidth),
		pad(scope, scopeWidth),
	}, " ")
}

// pad truncates or right-pads s to exactly width display cells.
func pad(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// Truncate truncates a string to the given display width.
func Truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func shortID(id string) string {
	if len(id) > idWidth {
		return id[:idWidth]
	}
	return id
}
