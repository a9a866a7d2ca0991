package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Header displays the plan count, the active filter and key hints.
type Header struct {
	Plans       int
	Filter      string
	LastRefresh time.Time
	keys        KeyMap
	width       int
}

// NewHeader creates a new header component.
func NewHeader(keys KeyMap) Header {
	return Header{keys: keys}
}

// SetWidth sets the component width.
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header.
func (h Header) View() string {
	contentWidth := h.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	left := headerLabelStyle.Render("Plans: ") + headerValueStyle.Render(fmt.Sprintf("%d", h.Plans))
	if h.Filter != "" {
		left += headerLabelStyle.Render("  |  ") + headerValueStyle.Render(h.Filter)
	}
	if !h.LastRefresh.IsZero() {
		left += headerLabelStyle.Render("  |  updated " + h.LastRefresh.Format("15:04:05"))
	}

	hints := h.renderKeyHints()
	spacing := contentWidth - lipgloss.Width(left) - lipgloss.Width(hints)
	if spacing < 1 {
		spacing = 1
	}

	return headerStyle.Width(contentWidth).Render(left + strings.Repeat(" ", spacing) + hints)
}

func (h Header) renderKeyHints() string {
	var parts []string
	for _, b := range h.keys.ShortHelp() {
		help := b.Help()
		parts = append(parts, helpKeyStyle.Render(help.Key)+helpDescStyle.Render(":"+help.Desc))
	}
	return strings.Join(parts, helpSeparatorStyle.Render("  "))
}
