package org

import "github.com/sarchlab/dramctl/internal/signal"

// Stats holds the counters spec.md §6 requires per channel. It is reset by
// BeginPhase and snapshotted into RoiStats by EndPhase, mirroring
// DRAM_CHANNEL::sim_stats / roi_stats in the original controller.
type Stats struct {
	Name string

	RQRowBufferHit  uint64
	RQRowBufferMiss uint64
	WQRowBufferHit  uint64
	WQRowBufferMiss uint64
	WQFull          uint64

	DBusCycleCongested signal.Time
	DBusCountCongested uint64
}
