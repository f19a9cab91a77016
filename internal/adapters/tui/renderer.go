package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/stencil/internal/core/domain"
)

// Renderer runs the dashboard as a Bubble Tea program.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a new dashboard renderer.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	program := tea.NewProgram(model, opts...)
	return &Renderer{
		program: program,
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start launches the dashboard in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop signals the dashboard to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the dashboard has terminated, either through Stop or
// because the user quit.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPublish forwards a published batch to the dashboard.
func (r *Renderer) OnPublish(pub domain.Publication) error {
	r.program.Send(MsgPublication{Publication: pub})
	return nil
}

// Program returns the underlying tea.Program for testing.
func (r *Renderer) Program() *tea.Program {
	return r.program
}
