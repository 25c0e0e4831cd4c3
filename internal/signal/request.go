package signal

import "github.com/rs/xid"

// QueueKind names which of a channel's two queues a request lives in.
type QueueKind int

// The two queues a DRAM channel schedules requests from.
const (
	ReadQueue QueueKind = iota
	WriteQueue
)

func (k QueueKind) String() string {
	if k == WriteQueue {
		return "WQ"
	}

	return "RQ"
}

// Request is one queue entry: a block-aligned address plus every packet
// that has been coalesced onto it. Requests live inside a channel's fixed
// RQ/WQ slot arrays and are addressed by slot index, never by pointer,
// so that a BankRequest's back-reference survives queue churn.
type Request struct {
	ID      xid.ID
	Address uint64 // block-aligned
	Packets []*Packet

	ForwardChecked bool
	Scheduled      bool
	ReadyTime      Time
}

// NewRequest wraps a single packet as a freshly admitted request.
func NewRequest(address uint64, pkt *Packet, readyTime Time) *Request {
	return &Request{
		ID:        xid.New(),
		Address:   address,
		Packets:   []*Packet{pkt},
		ReadyTime: readyTime,
	}
}

// FirstPacket returns the request's first packet, whose data is the
// payload forwarded to a colliding read. Responses themselves are built
// from each packet's own fields. Every merge keeps the original first
// packet in place, matching the source's "older dominates" collision
// semantics.
func (r *Request) FirstPacket() *Packet {
	return r.Packets[0]
}

// MergePacket folds src into r following the read-coalescing rule in
// spec.md §4.3 step 3: if an existing packet shares src's exact address,
// union-merge dependency and return-sink sets into it; otherwise append
// src as a new packet.
func (r *Request) MergePacket(src *Packet) {
	for _, existing := range r.Packets {
		if existing.Address == src.Address {
			existing.InstrDependOnMe = existing.InstrDependOnMe.Union(src.InstrDependOnMe)
			existing.ToReturn = existing.ToReturn.Union(src.ToReturn)

			return
		}
	}

	r.Packets = append(r.Packets, src)
}
