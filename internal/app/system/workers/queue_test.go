package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestQueue_RunsSubmittedTasks(t *testing.T) {
	q := NewQueue(zap.NewNop(), 10, 2, time.Second)
	q.Start()

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := q.Submit(Task{Name: "count", Run: func(context.Context) error {
			defer wg.Done()
			n.Add(1)
			return nil
		}})
		if !ok {
			t.Fatalf("Submit %d rejected", i)
		}
	}
	wg.Wait()
	q.Stop()

	if got := n.Load(); got != 5 {
		t.Errorf("ran %d tasks, want 5", got)
	}
}

func TestQueue_DropsWhenFull(t *testing.T) {
	// Not started, so nothing drains the buffer.
	q := NewQueue(zap.NewNop(), 1, 1, time.Second)
	noop := Task{Name: "noop", Run: func(context.Context) error { return nil }}

	if !q.Submit(noop) {
		t.Fatal("first Submit should fit in the buffer")
	}
	if q.Submit(noop) {
		t.Error("second Submit should be dropped when the buffer is full")
	}
}

func TestQueue_StopDrainsBufferedTasks(t *testing.T) {
	q := NewQueue(zap.NewNop(), 4, 1, time.Second)

	var n atomic.Int32
	for i := 0; i < 3; i++ {
		q.Submit(Task{Name: "count", Run: func(context.Context) error {
			n.Add(1)
			return nil
		}})
	}
	q.Start()
	q.Stop()

	if got := n.Load(); got != 3 {
		t.Errorf("ran %d tasks before stopping, want 3", got)
	}
	if q.Submit(Task{Name: "late", Run: func(context.Context) error { return nil }}) {
		t.Error("Submit after Stop should be rejected")
	}
	q.Stop() // second Stop is a no-op
}

func TestQueue_SurvivesFailingTasks(t *testing.T) {
	q := NewQueue(zap.NewNop(), 4, 1, time.Second)
	q.Start()
	defer q.Stop()

	done := make(chan struct{})
	q.Submit(Task{Name: "fail", Run: func(context.Context) error { return errors.New("boom") }})
	q.Submit(Task{Name: "panic", Run: func(context.Context) error { panic("boom") }})
	q.Submit(Task{Name: "ok", Run: func(context.Context) error { close(done); return nil }})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not recover from failing tasks")
	}
}
