package keys

import "github.com/charmbracelet/bubbles/key"

// Common key bindings used across TUI commands
type CommonKeys struct {
	Quit key.Binding
	Help key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// ResetKeys are the bindings of the reset progress view
type ResetKeys struct {
	CommonKeys
	Details key.Binding
}

func NewResetKeys() ResetKeys {
	return ResetKeys{
		CommonKeys: NewCommonKeys(),
		Details: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "toggle device details"),
		),
	}
}

func (k ResetKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

func (k ResetKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Details},
		{k.Help, k.Quit},
	}
}
