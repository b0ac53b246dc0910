package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/allbin/go-pcireset"
	"github.com/allbin/go-pcireset/internal/tui/styles"
	tea "github.com/charmbracelet/bubbletea"
)

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.msgs = append(s.msgs, msg)
}

func TestProgramDiagnostics(t *testing.T) {
	sender := &recordingSender{}
	diag := ProgramDiagnostics{Sender: sender}

	diag.Info("starting")
	diag.Success("done")
	diag.Warning("pending")

	want := []DiagnosticMsg{
		{Level: styles.LevelInfo, Text: "starting"},
		{Level: styles.LevelSuccess, Text: "done"},
		{Level: styles.LevelWarning, Text: "pending"},
	}
	if len(sender.msgs) != len(want) {
		t.Fatalf("got %d messages, expected %d", len(sender.msgs), len(want))
	}
	for i, msg := range sender.msgs {
		if msg != want[i] {
			t.Errorf("msgs[%d] = %+v, expected %+v", i, msg, want[i])
		}
	}
}

func quitKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestResetModelDefersQuitUntilDone(t *testing.T) {
	m := NewResetModel([]int{3, 5}, nil)

	if _, cmd := m.Update(quitKey()); isQuit(cmd) {
		t.Fatal("quit while the reset is running")
	}
	if !strings.Contains(m.View(), "exiting when the reset finishes") {
		t.Error("View() does not show the pending quit")
	}

	result := &pcireset.Result{Outcomes: []pcireset.DeviceOutcome{{Interface: 3, Completed: true}}}
	_, cmd := m.Update(ResetDoneMsg{Result: result})
	if !isQuit(cmd) {
		t.Error("expected quit once the reset finished")
	}

	got, err := m.Result()
	if got != result || err != nil {
		t.Errorf("Result() = %v, %v", got, err)
	}
}

func TestResetModelCollectsDiagnostics(t *testing.T) {
	m := NewResetModel([]int{3}, nil)

	m.Update(DiagnosticMsg{Level: styles.LevelInfo, Text: "Starting PCI link reset on devices at PCI indices: 3"})
	m.Update(DiagnosticMsg{Level: styles.LevelWarning, Text: "Config space reset not completed for device 3!"})

	view := m.View()
	for _, want := range []string{"Starting PCI link reset", "not completed for device 3!", "Resetting 1 device(s)"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	if _, cmd := m.Update(ResetDoneMsg{Err: errors.New("boom")}); isQuit(cmd) {
		t.Error("quit without a quit request")
	}
	if !m.Done() {
		t.Error("Done() = false after ResetDoneMsg")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("View() does not show the reset error")
	}
	if _, cmd := m.Update(quitKey()); !isQuit(cmd) {
		t.Error("quit key ignored after the reset finished")
	}
}

func TestResetModelRunsReset(t *testing.T) {
	want := &pcireset.Result{}
	m := NewResetModel([]int{1}, func() (*pcireset.Result, error) { return want, nil })

	msg, ok := m.runReset().(ResetDoneMsg)
	if !ok {
		t.Fatal("runReset() did not return a ResetDoneMsg")
	}
	if msg.Result != want || msg.Err != nil {
		t.Errorf("runReset() = %+v", msg)
	}
}
