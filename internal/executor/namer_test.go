package executor

import (
	"sync"
	"testing"
)

func TestNamer_Next(t *testing.T) {
	n := NewNamer("palette-task-")

	for _, want := range []string{"palette-task-1", "palette-task-2", "palette-task-3"} {
		if got := n.Next(); got != want {
			t.Errorf("Next() = %q, want %q", got, want)
		}
	}
}

func TestNamer_DefaultPrefix(t *testing.T) {
	n := NewNamer("")
	if n.Prefix() != DefaultWorkerPrefix {
		t.Errorf("expected default prefix %q, got %q", DefaultWorkerPrefix, n.Prefix())
	}
	if got := n.Next(); got != DefaultWorkerPrefix+"1" {
		t.Errorf("Next() = %q, want %q", got, DefaultWorkerPrefix+"1")
	}
}

func TestNamer_Concurrent(t *testing.T) {
	n := NewNamer("w-")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		names = make(map[string]bool)
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := n.Next()
			mu.Lock()
			names[name] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(names) != 50 {
		t.Errorf("expected 50 unique names, got %d", len(names))
	}
}
