package util

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestNotifyContext(t *testing.T) {
	exited := make(chan int, 1)
	ctx := notifyContext(context.Background(), func(code int) { exited <- code }, syscall.SIGUSR1)

	select {
	case <-ctx.Done():
		t.Fatal("context cancelled before any signal")
	default:
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("failed to signal self: %v", err)
	}

	select {
	case <-ctx.Done():
		if ctx.Err() != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", ctx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled by the first signal")
	}

	select {
	case code := <-exited:
		t.Fatalf("exit(%d) called after a single signal", code)
	case <-time.After(20 * time.Millisecond):
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("failed to signal self: %v", err)
	}

	select {
	case code := <-exited:
		if code != 1 {
			t.Errorf("expected exit code 1, got %d", code)
		}
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}
}

func TestNotifyContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := notifyContext(parent, func(int) {}, syscall.SIGUSR2)

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelling the parent should cancel the signal context")
	}
}
