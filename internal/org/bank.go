// Package org holds the per-bank and per-channel state machines that back
// a DRAM channel: bank_request tracking, collision/forwarding, mode
// switching, and bus arbitration.
package org

import "github.com/sarchlab/dramctl/internal/signal"

// BankRequest is the record kept per (rank, bank) pair. It tracks whether
// the bank is currently busy, which row its row buffer holds, and — via
// Queue/Index rather than a raw pointer — the queue slot it is servicing.
// Index-not-pointer back-references are the redesign this module makes
// over the original's raw queue iterator: RQ/WQ slots are reused as soon
// as they empty, so a stale pointer would silently alias the wrong
// request.
type BankRequest struct {
	Valid        bool
	RowBufferHit bool
	OpenRow      *uint64 // Option<row_id>; persists across invalidation.
	ReadyTime    signal.Time

	Queue signal.QueueKind
	Index int
}

// Idle reports whether the bank currently holds no in-flight command.
func (b *BankRequest) Idle() bool { return !b.Valid }

// Invalidate clears the busy bit without touching OpenRow: the physical
// row buffer keeps its contents until a precharge actually happens.
func (b *BankRequest) Invalidate() {
	b.Valid = false
}

// ClearOpenRow forgets the row buffer's contents. Used on a mode switch
// when the bank had not yet finished its RAS phase (see swapWriteMode).
func (b *BankRequest) ClearOpenRow() {
	b.OpenRow = nil
}
