package tui

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/ui/render"
)

const (
	batchListWidthRatio   = 0.3
	detailPaneBorderWidth = 4
)

// MsgPublication carries one published batch into the dashboard.
type MsgPublication struct {
	Publication domain.Publication
}

// BatchNode represents a single batch in the UI list.
type BatchNode struct {
	Publication domain.Publication
	Title       string
	Details     string
}

// Model represents the dashboard state.
type Model struct {
	Batches     []*BatchNode
	Root        string
	Viewport    viewport.Model
	SelectedIdx int
	ListOffset  int
	ListHeight  int
	FollowMode  bool
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

// Selected returns the batch under the cursor, or nil when the list is empty.
func (m *Model) Selected() *BatchNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Batches) {
		return m.Batches[m.SelectedIdx]
	}
	return nil
}

func (m *Model) updateActiveView() {
	if node := m.Selected(); node != nil {
		m.Viewport.SetContent(node.Details)
		m.Viewport.GotoTop()
	}
}

func (m *Model) selectLast() {
	if len(m.Batches) == 0 {
		return
	}
	m.SelectedIdx = len(m.Batches) - 1
	m.ensureVisible()
	m.updateActiveView()
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // one case per message kind
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "k", "up":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.FollowMode = false
				m.ensureVisible()
				m.updateActiveView()
			}
		case "j", "down":
			if m.SelectedIdx < len(m.Batches)-1 {
				m.SelectedIdx++
				m.FollowMode = false
				m.ensureVisible()
				m.updateActiveView()
			}
		case "esc":
			m.FollowMode = true
			m.selectLast()
		default:
			m.Viewport, cmd = m.Viewport.Update(msg)
		}

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * batchListWidthRatio)
		m.Viewport.Width = msg.Width - listWidth - detailPaneBorderWidth

		headerHeight := lipgloss.Height(titleStyle.Render("DETAILS"))
		m.Viewport.Height = msg.Height - headerHeight

		fullHeader := titleStyle.Render("BATCHES") + "\n\n"
		m.ListHeight = msg.Height - lipgloss.Height(fullHeader)
		m.ensureVisible()

	case MsgPublication:
		m.Batches = append(m.Batches, m.newBatchNode(msg.Publication))
		if m.FollowMode || len(m.Batches) == 1 {
			m.selectLast()
		}
	}

	return m, cmd
}

func (m *Model) newBatchNode(pub domain.Publication) *BatchNode {
	title := fmt.Sprintf("#%d  %d changes", pub.Batch, len(pub.Changes))
	if pub.Rebuilt {
		title = fmt.Sprintf("#%d  rebuilt", pub.Batch)
	}

	var details bytes.Buffer
	if err := render.New(&details, render.Options{Root: m.Root}).Publication(pub); err != nil {
		details.WriteString(err.Error())
	}
	return &BatchNode{Publication: pub, Title: title, Details: details.String()}
}
