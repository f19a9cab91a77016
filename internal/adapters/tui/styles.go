package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stencil/internal/ui/style"
)

var (
	batchQuietStyle = lipgloss.NewStyle().
			Foreground(style.Slate)

	batchChangedStyle = lipgloss.NewStyle().
				Foreground(style.Green)

	batchRebuiltStyle = lipgloss.NewStyle().
				Foreground(style.Iris)

	batchDegradedStyle = lipgloss.NewStyle().
				Foreground(style.Yellow)

	selectedStyle = lipgloss.NewStyle().
			Foreground(style.Iris).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(style.White)

	listStyle = lipgloss.NewStyle().
			PaddingRight(2)

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Slate).
			PaddingLeft(1)
)
