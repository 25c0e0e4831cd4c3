package dramctl

import "github.com/sarchlab/dramctl/internal/signal"

// Upstream is the narrow view the controller needs of an out-of-scope
// upstream cache channel: three ordered packet queues to drain from, and
// an append-only sink to deliver responses into. A real cache channel
// implements this directly over its own RQ/PQ/WQ/returned members.
type Upstream interface {
	// PeekRQ/PeekPQ/PeekWQ return the packet at the head of the read,
	// prefetch, and write queues respectively, or ok=false if empty.
	PeekRQ() (pkt *signal.Packet, ok bool)
	PeekPQ() (pkt *signal.Packet, ok bool)
	PeekWQ() (pkt *signal.Packet, ok bool)

	// PopRQ/PopPQ/PopWQ remove the head packet already returned by the
	// matching Peek call.
	PopRQ()
	PopPQ()
	PopWQ()

	// Returned is the sink that admitted read packets which asked for a
	// response are registered against.
	Returned() signal.ReturnSink
}
