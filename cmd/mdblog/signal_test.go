package main

import (
	"context"
	"os"
	"slices"
	"testing"
)

func TestShutdownSignals_Interrupt(t *testing.T) {
	t.Parallel()

	if !slices.Contains(shutdownSignals, os.Interrupt) {
		t.Errorf("shutdownSignals = %v, want os.Interrupt included", shutdownSignals)
	}
}

func TestNotifyContext_ParentCancel(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := notifyContext(parent)
	defer stop()

	cancel()
	<-ctx.Done()
	if ctx.Err() == nil {
		t.Error("context not canceled with its parent")
	}
}
