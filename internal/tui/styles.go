package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/planbridge/internal/plan"
)

// Monokai Pro color palette
var (
	colorForeground = lipgloss.Color("#fcfcfa")
	colorYellow     = lipgloss.Color("#ffd866")
	colorOrange     = lipgloss.Color("#fc9867")
	colorRed        = lipgloss.Color("#ff6188")
	colorMagenta    = lipgloss.Color("#ab9df2")
	colorGreen      = lipgloss.Color("#a9dc76")
	colorCyan       = lipgloss.Color("#78dce8")
	colorGray       = lipgloss.Color("#727072")
	colorDimGray    = lipgloss.Color("#5b595c")
)

// Panel styles
var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray).
			Padding(0, 1)

	headerLabelStyle = lipgloss.NewStyle().
				Foreground(colorGray)

	headerValueStyle = lipgloss.NewStyle().
				Foreground(colorForeground).
				Bold(true)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorDimGray).
			Padding(0, 1)

	columnHeaderStyle = lipgloss.NewStyle().
				Foreground(colorMagenta).
				Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Bold(true)

	rowStyle = lipgloss.NewStyle().
			Foreground(colorForeground)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorGray)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)
)

// Status indicator styles
var (
	statusSubmittedStyle = lipgloss.NewStyle().
				Foreground(colorGray)

	statusInProgressStyle = lipgloss.NewStyle().
				Foreground(colorOrange).
				Bold(true)

	statusReviewStyle = lipgloss.NewStyle().
				Foreground(colorCyan).
				Bold(true)

	statusNeedsFixesStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	statusCompletedStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)
)

// Help text styles
var (
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	helpSeparatorStyle = lipgloss.NewStyle().
				Foreground(colorDimGray)
)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)

// StatusStyle returns the style used to render a plan or phase status.
func StatusStyle(s plan.Status) lipgloss.Style {
	switch s {
	case plan.StatusInProgress:
		return statusInProgressStyle
	case plan.StatusReviewRequested:
		return statusReviewStyle
	case plan.StatusNeedsFixes:
		return statusNeedsFixesStyle
	case plan.StatusCompleted:
		return statusCompletedStyle
	default:
		return statusSubmittedStyle
	}
}
