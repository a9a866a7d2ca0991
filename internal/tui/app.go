// Package tui provides the Bubble Tea dashboard behind `plan-bridge watch`.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/planbridge/internal/log"
	"github.com/gerunddev/planbridge/internal/plan"
	"github.com/gerunddev/planbridge/internal/store"
	"github.com/gerunddev/planbridge/internal/tools"
)

// Lister is the part of a store the dashboard reads.
type Lister interface {
	List(f store.Filter) ([]*plan.Plan, error)
}

// Model is the Bubble Tea model for the plan dashboard.
type Model struct {
	header Header
	keys   KeyMap

	lister   Lister
	filter   store.Filter
	changes  <-chan struct{}
	interval time.Duration

	plans       []*plan.Plan
	selected    int
	err         error
	quitting    bool
	initialized bool

	width  int
	height int
}

// PlansLoadedMsg carries a fresh listing.
type PlansLoadedMsg struct {
	Plans []*plan.Plan
	Err   error
	At    time.Time
}

// PlansChangedMsg signals that plan files changed on disk.
type PlansChangedMsg struct{}

// ChangesClosedMsg signals that the change channel has closed.
type ChangesClosedMsg struct{}

// TickMsg triggers a periodic refresh.
type TickMsg time.Time

// NewModel creates a dashboard over l. A zero interval disables periodic
// refresh; a nil changes channel disables file notifications.
func NewModel(l Lister, f store.Filter, changes <-chan struct{}, interval time.Duration) Model {
	keys := DefaultKeyMap()
	header := NewHeader(keys)
	header.Filter = describeFilter(f)
	return Model{
		header:   header,
		keys:     keys,
		lister:   l,
		filter:   f,
		changes:  changes,
		interval: interval,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.listenForChanges(), m.tick())
}

func (m Model) load() tea.Cmd {
	l, f := m.lister, m.filter
	return func() tea.Msg {
		plans, err := l.List(f)
		return PlansLoadedMsg{Plans: plans, Err: err, At: time.Now()}
	}
}

func (m Model) listenForChanges() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return ChangesClosedMsg{}
		}
		return PlansChangedMsg{}
	}
}

func (m Model) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.header.SetWidth(msg.Width)
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.plans)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		}
		return m, nil

	case PlansLoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			log.Warn("failed to list plans", "error", msg.Err)
			return m, nil
		}
		m.plans = msg.Plans
		m.header.Plans = len(msg.Plans)
		m.header.LastRefresh = msg.At
		m.keepSelection()
		return m, nil

	case PlansChangedMsg:
		return m, tea.Batch(m.load(), m.listenForChanges())

	case ChangesClosedMsg:
		m.changes = nil
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.load(), m.tick())
	}

	return m, nil
}

// keepSelection clamps the selection after the list changed size.
func (m *Model) keepSelection() {
	if m.selected >= len(m.plans) {
		m.selected = len(m.plans) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.initialized {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(m.header.View())
	s.WriteString("\n")

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var body string
	switch {
	case m.err != nil:
		body = errorStyle.Render(fmt.Sprintf("✗ ERROR: %v", m.err))
	case len(m.plans) == 0:
		body = emptyStyle.Render("No plans yet.")
	default:
		summaries := make([]tools.PlanSummary, len(m.plans))
		for i, p := range m.plans {
			summaries[i] = tools.Summarize(p)
		}
		body = renderTable(summaries, m.selected, contentWidth-4) + "\n\n" + m.renderDetail(contentWidth-4)
	}
	s.WriteString(panelStyle.Width(contentWidth).Render(body))

	return lipgloss.NewStyle().MaxWidth(m.width).Render(s.String())
}

// renderDetail describes the selected plan and its phases.
func (m Model) renderDetail(width int) string {
	if m.selected >= len(m.plans) {
		return ""
	}
	p := m.plans[m.selected]
	s := tools.Summarize(p)

	lines := []string{
		detailLabelStyle.Render("Plan:    ") + Truncate(p.Name, width-9),
		detailLabelStyle.Render("Project: ") + Truncate(p.ProjectPath, width-9),
		detailLabelStyle.Render("Reviews: ") + fmt.Sprintf("%d  fixes: %d", s.ReviewsCount, s.FixReportsCount),
	}
	for _, ph := range p.Phases {
		marker := "  "
		if ph.ID == p.CurrentPhaseID {
			marker = "▶ "
		}
		label := fmt.Sprintf("%sPhase %d: ", marker, ph.PhaseNumber)
		name := Truncate(ph.Name, width-lipgloss.Width(label)-statusWidth-1)
		lines = append(lines, label+name+" "+StatusStyle(ph.Status).Render(string(ph.Status)))
	}
	return strings.Join(lines, "\n")
}

// Selected returns the highlighted plan, or nil.
func (m Model) Selected() *plan.Plan {
	if m.selected >= len(m.plans) {
		return nil
	}
	return m.plans[m.selected]
}

// Error returns the last listing error.
func (m Model) Error() error {
	return m.err
}

func describeFilter(f store.Filter) string {
	var parts []string
	if f.ProjectPath != "" {
		parts = append(parts, f.ProjectPath)
	}
	if f.Status != "" {
		parts = append(parts, string(f.Status))
	}
	if f.Scope != "" {
		parts = append(parts, string(f.Scope))
	}
	return strings.Join(parts, " ")
}

// Run starts the dashboard. File-backed stores are watched for changes;
// every store is also re-read every interval.
func Run(s store.Store, f store.Filter, interval time.Duration) error {
	var changes <-chan struct{}
	if ws, ok := s.(interface{ WatchDirs() ([]string, error) }); ok {
		dirs, err := ws.WatchDirs()
		if err != nil {
			return fmt.Errorf("failed to resolve plan directories: %w", err)
		}
		w, err := NewDirWatcher(dirs)
		if err != nil {
			return fmt.Errorf("failed to watch plan directories: %w", err)
		}
		defer func() { log.CloseError("plan watcher", w.Close()) }()
		changes = w.Changes()
	}

	m := NewModel(s, f, changes, interval)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
