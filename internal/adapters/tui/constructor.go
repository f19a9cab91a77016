// Package tui provides an interactive dashboard for watch mode.
package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stencil/internal/ui/output"
)

// NewModel creates a dashboard that shows paths relative to root.
func NewModel(w io.Writer, root string) Model {
	if w == nil {
		w = os.Stderr
	}
	lipgloss.SetColorProfile(output.New(w).Profile)

	return Model{
		Batches:    make([]*BatchNode, 0),
		Root:       root,
		Viewport:   viewport.New(0, 0),
		FollowMode: true,
	}
}
