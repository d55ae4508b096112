package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	nodeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// nodeDoneMsg reports one node finishing execution, reported by a
// workflow.ProgressFunc wired to this program.
type nodeDoneMsg struct {
	nodeID string
	done   int
	total  int
}

type runFinishedMsg struct{ err error }

// runModel is the Bubbletea state for `cwlrun run --tui`: a progress bar
// plus the id of the most recently completed node.
type runModel struct {
	docURL   string
	bar      progress.Model
	total    int
	done     int
	last     string
	finished bool
	err      error
}

func newRunModel(docURL string) runModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	return runModel{docURL: docURL, bar: bar}
}

func (m runModel) Init() tea.Cmd { return nil }

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case nodeDoneMsg:
		m.total = msg.total
		m.done = msg.done
		m.last = msg.nodeID
		return m, nil
	case runFinishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m runModel) View() string {
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.done) / float64(m.total)
	}
	header := titleStyle.Render(fmt.Sprintf("cwlrun • %s", m.docURL))
	bar := m.bar.ViewAs(ratio)
	status := nodeStyle.Render(fmt.Sprintf("%d/%d nodes", m.done, m.total))
	if m.last != "" {
		status = fmt.Sprintf("%s  last: %s", status, m.last)
	}
	if m.finished {
		if m.err != nil {
			return lipgloss.JoinVertical(lipgloss.Left, header, bar, status, nodeStyle.Render(m.err.Error()))
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, bar, doneStyle.Render("run complete"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, bar, status)
}
