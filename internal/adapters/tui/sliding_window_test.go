package tui_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/stencil/internal/adapters/tui"
	"go.trai.ch/stencil/internal/core/domain"
)

func TestUpdate_SlidingWindow_Scrolling(t *testing.T) {
	batches := make([]*tui.BatchNode, 10)
	for i := range batches {
		batches[i] = &tui.BatchNode{Publication: domain.Publication{Batch: uint64(i + 1)}}
	}
	m := &tui.Model{Batches: batches, ListHeight: 5}

	for range 4 {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 4, m.SelectedIdx)
	assert.Equal(t, 0, m.ListOffset)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 5, m.SelectedIdx)
	assert.Equal(t, 1, m.ListOffset)

	for range 4 {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 9, m.SelectedIdx)
	assert.Equal(t, 5, m.ListOffset)

	for range 4 {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 5, m.SelectedIdx)
	assert.Equal(t, 5, m.ListOffset)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 4, m.SelectedIdx)
	assert.Equal(t, 4, m.ListOffset)
}

func TestUpdate_SlidingWindow_Follow(t *testing.T) {
	m := &tui.Model{ListHeight: 5, FollowMode: true}

	for i := range 10 {
		m = publish(t, m, domain.Publication{Batch: uint64(i + 1)})
	}

	assert.Equal(t, 9, m.SelectedIdx)
	assert.Equal(t, 5, m.ListOffset)
}
