package domain

import "time"

// ScanSession carries the counters of one continuous run. It is owned and
// mutated exclusively by the scheduler loop, so it needs no synchronization.
type ScanSession struct {
	// ID identifies the run in logs and status endpoints.
	ID        string
	StartedAt time.Time
	// CyclesCompleted counts cycles that ran to completion, including
	// persistence of their opportunities.
	CyclesCompleted uint64
	// OpportunitiesFound counts opportunities across all completed cycles.
	OpportunitiesFound uint64
}
