package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stencil/internal/ui/style"
)

// View renders the UI.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.batchList(),
		m.detailPane(),
	)
}

func (m *Model) batchList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("BATCHES") + "\n\n")

	start := m.ListOffset
	end := min(m.ListOffset+m.ListHeight, len(m.Batches))
	start = min(start, end)

	for i := start; i < end; i++ {
		s.WriteString(m.renderBatchRow(i, m.Batches[i]) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) renderBatchRow(index int, node *BatchNode) string {
	icon, rowStyle := batchAppearance(node)

	cursor := "  "
	if index == m.SelectedIdx {
		cursor = selectedStyle.Render("> ")
	}
	return cursor + rowStyle.Render(fmt.Sprintf("%s %s", icon, node.Title))
}

func batchAppearance(node *BatchNode) (string, lipgloss.Style) {
	pub := node.Publication
	switch {
	case len(pub.Degraded) > 0:
		return style.Warning, batchDegradedStyle
	case pub.Rebuilt:
		return style.Dot, batchRebuiltStyle
	case len(pub.Changes) > 0 || len(pub.Contexts) > 0:
		return style.Check, batchChangedStyle
	default:
		return style.Tilde, batchQuietStyle
	}
}

func (m *Model) detailPane() string {
	var header string
	if node := m.Selected(); node != nil {
		status := " (Manual)"
		if m.FollowMode {
			status = " (Following)"
		}
		header = titleStyle.Render(fmt.Sprintf("DETAILS: #%d%s", node.Publication.Batch, status))
	} else {
		header = titleStyle.Render("DETAILS (Waiting...)")
	}

	return detailStyle.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			header,
			m.Viewport.View(),
		),
	)
}
