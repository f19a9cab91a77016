package coordinator_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/engine/coordinator"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]domain.Event
}

func (r *recorder) record(events []domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, events)
}

func (r *recorder) snapshot() [][]domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]domain.Event(nil), r.batches...)
}

func modified(path string) domain.FileEvent {
	return domain.FileEvent{Op: domain.FileModified, Path: path}
}

func TestCollector_SingleEvent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(100*time.Millisecond, r.record)

		c.Add(modified("/a.html"))
		assert.True(t, c.Pending())

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		batches := r.snapshot()
		require.Len(t, batches, 1)
		assert.Equal(t, []domain.Event{modified("/a.html")}, batches[0])
		assert.False(t, c.Pending())
	})
}

func TestCollector_EveryEventRestartsWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(100*time.Millisecond, r.record)

		for range 4 {
			c.Add(modified("/a.html"))
			time.Sleep(80 * time.Millisecond)
		}
		synctest.Wait()
		assert.Empty(t, r.snapshot())

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()

		batches := r.snapshot()
		require.Len(t, batches, 1)
		assert.Len(t, batches[0], 4)
	})
}

func TestCollector_SeparateWindows(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(100*time.Millisecond, r.record)

		c.Add(modified("/a.html"))
		time.Sleep(150 * time.Millisecond)
		c.Add(modified("/b.html"))
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		batches := r.snapshot()
		require.Len(t, batches, 2)
		assert.Equal(t, []domain.Event{modified("/a.html")}, batches[0])
		assert.Equal(t, []domain.Event{modified("/b.html")}, batches[1])
	})
}

func TestCollector_EventsDuringBatchWaitForNextOne(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		release := make(chan struct{})
		c := coordinator.NewCollector(100*time.Millisecond, func(events []domain.Event) {
			r.record(events)
			if len(r.snapshot()) == 1 {
				<-release
			}
		})

		c.Add(modified("/a.html"))
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		c.Add(modified("/b.html"))
		c.Add(modified("/c.html"))
		time.Sleep(time.Second)
		synctest.Wait()
		require.Len(t, r.snapshot(), 1)

		close(release)
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		batches := r.snapshot()
		require.Len(t, batches, 2)
		assert.Equal(t, []domain.Event{modified("/b.html"), modified("/c.html")}, batches[1])
	})
}

func TestCollector_PauseAndResume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(100*time.Millisecond, r.record)

		c.Add(modified("/a.html"))
		c.Add(domain.IndexingEvent{Paused: true})
		c.Add(modified("/b.html"))
		assert.True(t, c.Paused())

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Empty(t, r.snapshot())

		c.Add(domain.IndexingEvent{Paused: false})
		synctest.Wait()

		batches := r.snapshot()
		require.Len(t, batches, 1)
		assert.Equal(t, []domain.Event{modified("/a.html"), modified("/b.html")}, batches[0])
		assert.False(t, c.Paused())
	})
}

func TestCollector_ResumeWithoutPauseIsNoop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(100*time.Millisecond, r.record)

		c.Add(modified("/a.html"))
		c.Resume()
		synctest.Wait()
		assert.Empty(t, r.snapshot())

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, r.snapshot(), 1)
	})
}

func TestCollector_FlushIgnoresWindowAndPause(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(time.Hour, r.record)

		c.Pause()
		c.Add(modified("/a.html"))
		c.Flush()

		batches := r.snapshot()
		require.Len(t, batches, 1)
		assert.False(t, c.Pending())

		c.Flush()
		assert.Len(t, r.snapshot(), 1)
	})
}

func TestCollector_FlushWithForce(t *testing.T) {
	var calls int
	c := coordinator.NewCollector(time.Hour, nil)

	c.FlushWith(func(events []domain.Event) {
		calls++
		assert.Empty(t, events)
	}, true)
	assert.Equal(t, 1, calls)
}

func TestCollector_StopDropsPending(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(100*time.Millisecond, r.record)

		c.Add(modified("/a.html"))
		c.Stop()
		time.Sleep(time.Second)
		synctest.Wait()

		assert.Empty(t, r.snapshot())
		assert.False(t, c.Pending())
	})
}

func TestCollector_SetWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var r recorder
		c := coordinator.NewCollector(time.Hour, r.record)
		c.SetWindow(10 * time.Millisecond)

		c.Add(modified("/a.html"))
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()

		assert.Len(t, r.snapshot(), 1)
	})
}
