package workers

import (
	"sync/atomic"
	"testing"
)

func TestRunExecutesEveryTask(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var count int64
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func() { atomic.AddInt64(&count, 1) }
	}
	p.Run(tasks)

	if count != 10 {
		t.Errorf("expected 10 tasks run, got %d", count)
	}
}

func TestZeroWorkersRunsSynchronously(t *testing.T) {
	p := NewPool(0)
	var count int64
	p.Run([]Task{
		func() { atomic.AddInt64(&count, 1) },
		func() { atomic.AddInt64(&count, 1) },
	})
	if count != 2 {
		t.Errorf("expected 2 tasks run synchronously, got %d", count)
	}
}

func TestRunOnceExecutesEveryTask(t *testing.T) {
	var count int64
	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = func() { atomic.AddInt64(&count, 1) }
	}
	RunOnce(tasks)
	if count != 8 {
		t.Errorf("expected 8 tasks run, got %d", count)
	}
}
