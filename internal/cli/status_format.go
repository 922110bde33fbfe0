package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/opencode-ai/sequencer/internal/timeline"
	"golang.org/x/term"
)

var (
	styleReady    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	stylePlaying  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	styleWaiting  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleStopping = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styleMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func formatTimelineState(state timeline.State) string {
	label, style := stateDescriptor(state)
	return render(style, formatStatusLabel(label, state.String()))
}

func stateDescriptor(state timeline.State) (string, lipgloss.Style) {
	switch state {
	case timeline.StateReady:
		return "OK", styleReady
	case timeline.StatePlaying:
		return ">", stylePlaying
	case timeline.StateWaiting:
		return "WAIT", styleWaiting
	case timeline.StateStopping:
		return "STOP", styleStopping
	default:
		return "?", styleMuted
	}
}

func formatStatusLabel(label, status string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(status, "_", " "))
	if normalized == "" {
		return label
	}
	return label + " " + normalized
}

func render(style lipgloss.Style, text string) string {
	if !colorEnabled() {
		return text
	}
	return style.Render(text)
}

func colorEnabled() bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return hasTTY()
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
