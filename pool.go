package mdblog

import "runtime"

// Worker sizing constants.
const (
	// MinWorkers ensures at least one document renders at a time.
	MinWorkers = 1

	// MaxWorkers caps parallel renders; each holds a full document in memory.
	MaxWorkers = 32
)

// ResolveWorkers determines how many documents render in parallel.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolveWorkers(workers int) int {
	// Explicit value takes priority
	if workers > 0 {
		return min(workers, MaxWorkers)
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0)

	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}
