package styles

import (
	"github.com/allbin/go-pcireset/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Lavender)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(colors.Text)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)

	// Diagnostic level styles
	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Blue)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)
)

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Prefix is the marker printed before a diagnostic line
func (l Level) Prefix() string {
	switch l {
	case LevelSuccess:
		return "✓"
	case LevelWarning:
		return "!"
	case LevelError:
		return "✗"
	default:
		return "•"
	}
}

func GetLevelStyle(level Level) lipgloss.Style {
	switch level {
	case LevelSuccess:
		return SuccessStyle
	case LevelWarning:
		return WarningStyle
	case LevelError:
		return ErrorStyle
	default:
		return InfoStyle
	}
}

// RenderLevel renders a diagnostic line with its level marker
func RenderLevel(level Level, msg string) string {
	style := GetLevelStyle(level)
	return style.Render(level.Prefix()) + " " + style.UnsetBold().Render(msg)
}
