package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains pre-configured lipgloss styles for the chat view.
type Styles struct {
	// Title style for the header line.
	Title lipgloss.Style

	// Question style for the user's questions.
	Question lipgloss.Style

	// AnswerText style for generated answers.
	AnswerText lipgloss.Style

	// Citation style for cited passages.
	Citation lipgloss.Style

	// Muted style for hints and cache markers.
	Muted lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// InputBox frames the question input.
	InputBox lipgloss.Style
}

// DefaultStyles returns the default chat styling.
func DefaultStyles() *Styles {
	return &Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Question:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		AnswerText: lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")),
		Citation:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).PaddingLeft(2),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		InputBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}
