// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The goccp authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ecukit/goccp/pkg/ccp"
)

// Messages
type monitorTickMsg time.Time
type monitorSamplesMsg []ccp.Sample
type monitorErrMsg struct{ err error }

// signalRow is the latest observation of one element.
type signalRow struct {
	value   float64
	last    time.Time
	samples uint64
}

type monitorModel struct {
	connInfo string
	stats    *ccp.Statistics

	order   []string // element names in profile order
	signals map[string]*signalRow
	table   table.Model

	lastErr  error
	width    int
	quitting bool
}

var (
	monitorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	monitorHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	monitorLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("12")).
				Bold(true)

	monitorValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10"))

	monitorErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	monitorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func newMonitorModel(connInfo string, elements []ccp.Element, stats *ccp.Statistics) monitorModel {
	order := make([]string, len(elements))
	signals := make(map[string]*signalRow, len(elements))
	for i, e := range elements {
		order[i] = e.Name
		signals[e.Name] = &signalRow{}
	}

	columns := []table.Column{
		{Title: "Signal", Width: 24},
		{Title: "Value", Width: 14},
		{Title: "Samples", Width: 10},
		{Title: "Last Update", Width: 14},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(len(elements)+1),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return monitorModel{
		connInfo: connInfo,
		stats:    stats,
		order:    order,
		signals:  signals,
		table:    t,
		width:    80,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(monitorTick(), tea.EnterAltScreen)
}

func monitorTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case monitorTickMsg:
		m.refreshRows()
		return m, monitorTick()

	case monitorSamplesMsg:
		for _, s := range msg {
			row, ok := m.signals[s.Name]
			if !ok {
				row = &signalRow{}
				m.signals[s.Name] = row
				m.order = append(m.order, s.Name)
			}
			row.value = s.Value
			row.last = s.Timestamp
			row.samples++
		}

	case monitorErrMsg:
		m.lastErr = msg.err
	}

	return m, nil
}

func (m *monitorModel) refreshRows() {
	rows := make([]table.Row, 0, len(m.order))
	for _, name := range m.order {
		sig := m.signals[name]
		value, last := "-", "-"
		if sig.samples > 0 {
			value = fmt.Sprintf("%.4f", sig.value)
			last = sig.last.Format("15:04:05.000")
		}
		rows = append(rows, table.Row{name, value, fmt.Sprintf("%d", sig.samples), last})
	}
	m.table.SetRows(rows)
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Stopping DAQ session...\n"
	}

	var s strings.Builder
	s.WriteString(monitorTitleStyle.Render("GOCCP - DAQ MONITOR"))
	s.WriteString("\n")
	s.WriteString(monitorHeaderStyle.Render(fmt.Sprintf("Connection: %s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	s.WriteString(m.table.View())
	s.WriteString("\n\n")

	st := m.stats.Snapshot()
	statsLine := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		monitorLabelStyle.Render("Frames:"), monitorValueStyle.Render(fmt.Sprintf("%d", st.TotalFrames)),
		monitorLabelStyle.Render("DAQ:"), monitorValueStyle.Render(fmt.Sprintf("%d", st.DAQCount)),
		monitorLabelStyle.Render("Rate:"), monitorValueStyle.Render(fmt.Sprintf("%.1f fps", m.stats.FrameRate())),
		monitorLabelStyle.Render("Dropped:"), monitorValueStyle.Render(fmt.Sprintf("%d", st.DroppedCount+st.MalformedCount)),
	)
	s.WriteString(monitorBoxStyle.Render(statsLine))
	s.WriteString("\n")

	if m.lastErr != nil {
		s.WriteString(monitorErrStyle.Render(fmt.Sprintf("stream error: %v", m.lastErr)))
		s.WriteString("\n")
	}

	return s.String()
}
