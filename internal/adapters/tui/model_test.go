package tui_test

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/tui"
	"go.trai.ch/stencil/internal/core/domain"
)

func crumbChange() domain.ResolutionChange {
	key := domain.Key{
		Context: domain.ContextID{Site: "main", Mode: "html"},
		Kind:    domain.KindPartial,
		Name:    "Nav/Crumb",
	}
	return domain.ResolutionChange{
		Key: key,
		New: &domain.Implementation{Path: "/ws/site/Partials/Nav/Crumb.html"},
	}
}

func publish(t *testing.T, m *tui.Model, pub domain.Publication) *tui.Model {
	t.Helper()
	updated, _ := m.Update(tui.MsgPublication{Publication: pub})
	return updated.(*tui.Model)
}

func press(t *testing.T, m *tui.Model, key tea.KeyMsg) *tui.Model {
	t.Helper()
	updated, _ := m.Update(key)
	return updated.(*tui.Model)
}

func TestModel_Publication(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	model := tui.NewModel(io.Discard, "/ws")
	m := &model

	m = publish(t, m, domain.Publication{Batch: 1, Rebuilt: true})
	m = publish(t, m, domain.Publication{Batch: 2, Events: 1, Changes: []domain.ResolutionChange{crumbChange()}})

	require.Len(t, m.Batches, 2)
	assert.Equal(t, "#1  rebuilt", m.Batches[0].Title)
	assert.Equal(t, "#2  1 changes", m.Batches[1].Title)
	assert.Equal(t, 1, m.SelectedIdx, "follow mode selects the newest batch")
	assert.Contains(t, m.Batches[1].Details, "partial Nav/Crumb in main:html")
	assert.Contains(t, m.Batches[1].Details, "site/Partials/Nav/Crumb.html")
	assert.NotContains(t, m.Batches[1].Details, "/ws/")
}

func TestModel_Navigation(t *testing.T) {
	model := tui.NewModel(io.Discard, "")
	m := &model
	for i := range 3 {
		m = publish(t, m, domain.Publication{Batch: uint64(i + 1)})
	}
	require.Equal(t, 2, m.SelectedIdx)

	t.Run("moving leaves follow mode", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
		assert.Equal(t, 1, m.SelectedIdx)
		assert.False(t, m.FollowMode)

		m = publish(t, m, domain.Publication{Batch: 4})
		assert.Equal(t, 1, m.SelectedIdx, "manual mode keeps the selection")
	})

	t.Run("bounds", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
		assert.Equal(t, 0, m.SelectedIdx)

		for range 10 {
			m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
		}
		assert.Equal(t, 3, m.SelectedIdx)
	})

	t.Run("esc resumes following", func(t *testing.T) {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
		m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.True(t, m.FollowMode)
		assert.Equal(t, 3, m.SelectedIdx)
	})

	t.Run("quit", func(t *testing.T) {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())

		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestModel_FirstBatchSelectedInManualMode(t *testing.T) {
	m := &tui.Model{}
	m = publish(t, m, domain.Publication{Batch: 1})

	assert.Equal(t, 0, m.SelectedIdx)
	assert.NotNil(t, m.Selected())
}

func TestModel_WindowResize(t *testing.T) {
	model := tui.NewModel(io.Discard, "")
	m := &model

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	m = updated.(*tui.Model)

	expectedListWidth := int(float64(100) * 0.3)
	assert.Equal(t, 100-expectedListWidth-4, m.Viewport.Width)
	assert.Positive(t, m.Viewport.Height)
	assert.Less(t, m.Viewport.Height, 50)
	assert.Less(t, m.ListHeight, 50)
	assert.Greater(t, m.ListHeight, 40)
}
