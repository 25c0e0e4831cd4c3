package main

import "github.com/sarchlab/dramctl/internal/signal"

// demoUpstream feeds a single packet to the controller and collects
// whatever responses come back, standing in for a real cache channel.
type demoUpstream struct {
	pkt     *signal.Packet
	isWrite bool
	popped  bool

	responses []signal.Response
}

func newDemoUpstream(addr uint64, data []byte, isWrite bool) *demoUpstream {
	pkt := signal.NewPacket(addr, addr, data)
	pkt.ResponseRequested = true

	return &demoUpstream{pkt: pkt, isWrite: isWrite}
}

func (u *demoUpstream) PeekRQ() (*signal.Packet, bool) {
	if u.isWrite || u.popped {
		return nil, false
	}

	return u.pkt, true
}

func (u *demoUpstream) PeekPQ() (*signal.Packet, bool) { return nil, false }

func (u *demoUpstream) PeekWQ() (*signal.Packet, bool) {
	if !u.isWrite || u.popped {
		return nil, false
	}

	return u.pkt, true
}

func (u *demoUpstream) PopRQ() { u.popped = true }
func (u *demoUpstream) PopPQ() {}
func (u *demoUpstream) PopWQ() { u.popped = true }

func (u *demoUpstream) Returned() signal.ReturnSink { return u }

func (u *demoUpstream) PushResponse(resp signal.Response) {
	u.responses = append(u.responses, resp)
}

// drained reports whether the packet has left the upstream's queue and,
// for a read, its response has arrived. A write is drained once admitted.
func (u *demoUpstream) drained() bool {
	if !u.popped {
		return false
	}

	return u.isWrite || len(u.responses) > 0
}
