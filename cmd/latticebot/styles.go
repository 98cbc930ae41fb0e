package main

import "github.com/charmbracelet/lipgloss"

const (
	colorPrimary = lipgloss.Color("#FF6B6B")
	colorMuted   = lipgloss.Color("#888888")
	colorSuccess = lipgloss.Color("#4CAF50")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F7B801")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	nameStyle    = lipgloss.NewStyle().Bold(true)
)
