package tui_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/tui"
	"go.trai.ch/stencil/internal/core/domain"
)

func newTestRenderer(model *tui.Model) *tui.Renderer {
	return tui.NewRenderer(
		model,
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func TestRenderer_Lifecycle(t *testing.T) {
	model := tui.NewModel(io.Discard, "")
	renderer := newTestRenderer(&model)

	require.NoError(t, renderer.Start(context.Background()))
	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Wait())
}

func TestRenderer_OnPublish(t *testing.T) {
	model := tui.NewModel(io.Discard, "")
	renderer := newTestRenderer(&model)
	require.NoError(t, renderer.Start(context.Background()))

	require.NoError(t, renderer.OnPublish(domain.Publication{Batch: 1, Rebuilt: true}))
	require.NoError(t, renderer.OnPublish(domain.Publication{Batch: 2}))

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Wait())

	assert.Len(t, model.Batches, 2)
	assert.NotNil(t, renderer.Program())
}
