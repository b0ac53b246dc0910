package models

import (
	"fmt"
	"strings"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/components"
	"github.com/allbin/go-pcireset/internal/tui/keys"
	"github.com/allbin/go-pcireset/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// DiagnosticMsg is a progress line emitted by a running reset
type DiagnosticMsg struct {
	Level styles.Level
	Text  string
}

// ResetDoneMsg carries the outcome of the reset batch
type ResetDoneMsg struct {
	Result *pcireset.Result
	Err    error
}

// Sender delivers messages to a running program, e.g. *tea.Program
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramDiagnostics forwards reset progress into a bubbletea program
type ProgramDiagnostics struct {
	Sender Sender
}

var _ pcireset.Diagnostics = ProgramDiagnostics{}

func (d ProgramDiagnostics) Info(msg string) {
	d.Sender.Send(DiagnosticMsg{Level: styles.LevelInfo, Text: msg})
}

func (d ProgramDiagnostics) Success(msg string) {
	d.Sender.Send(DiagnosticMsg{Level: styles.LevelSuccess, Text: msg})
}

func (d ProgramDiagnostics) Warning(msg string) {
	d.Sender.Send(DiagnosticMsg{Level: styles.LevelWarning, Text: msg})
}

// ResetModel shows progress of a reset batch. A quit request while the batch
// is running is deferred until it finishes so devices are never left without
// their restore command.
type ResetModel struct {
	ifaces []int
	run    func() (*pcireset.Result, error)

	spinner spinner.Model
	help    help.Model
	keys    keys.ResetKeys

	lines         []DiagnosticMsg
	result        *pcireset.Result
	err           error
	done          bool
	quitRequested bool
	showDetails   bool
}

func NewResetModel(ifaces []int, run func() (*pcireset.Result, error)) *ResetModel {
	return &ResetModel{
		ifaces: ifaces,
		run:    run,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.InfoStyle),
		),
		help:        help.New(),
		keys:        keys.NewResetKeys(),
		showDetails: true,
	}
}

func (m *ResetModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runReset)
}

func (m *ResetModel) runReset() tea.Msg {
	result, err := m.run()
	return ResetDoneMsg{Result: result, Err: err}
}

func (m *ResetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.done {
				return m, tea.Quit
			}
			m.quitRequested = true
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Details):
			m.showDetails = !m.showDetails
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case DiagnosticMsg:
		m.lines = append(m.lines, msg)
		return m, nil

	case ResetDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if m.quitRequested {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *ResetModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("PCIe Reset"))
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(styles.RenderLevel(line.Level, line.Text))
		b.WriteString("\n")
	}

	switch {
	case !m.done:
		b.WriteString(fmt.Sprintf("\n%s Resetting %d device(s)...", m.spinner.View(), len(m.ifaces)))
		if m.quitRequested {
			b.WriteString(styles.HelpStyle.Render("  (exiting when the reset finishes)"))
		}
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString("\n" + styles.RenderLevel(styles.LevelError, m.err.Error()) + "\n")
	}

	if m.done && m.result != nil && m.showDetails {
		b.WriteString("\n")
		b.WriteString(components.OutcomeTable(m.result))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Result returns the batch outcome once the reset has finished
func (m *ResetModel) Result() (*pcireset.Result, error) {
	return m.result, m.err
}

// Done reports whether the reset batch has finished
func (m *ResetModel) Done() bool {
	return m.done
}
