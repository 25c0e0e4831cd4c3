// Package dramctl implements the off-chip DRAM memory controller core: a
// cycle-level scheduler that sits between upstream last-level cache
// channels and a modeled DRAM array. The core owns address decoding,
// per-channel read/write queues, bank timing, mode switching, and data
// bus arbitration; everything else (the tick driver, the cache channels
// themselves, configuration parsing, statistics reporting, and logging)
// is an external collaborator reached through narrow interfaces.
package dramctl

import (
	"fmt"
	"io"

	"github.com/sarchlab/dramctl/internal/addrmap"
	"github.com/sarchlab/dramctl/internal/org"
	"github.com/sarchlab/dramctl/internal/signal"
)

// Time is a point or duration in picoseconds.
type Time = signal.Time

// Controller owns every channel and the address map, pulling requests
// from each upstream once per tick and dispatching them to the channel
// selected by the decoded channel field.
type Controller struct {
	addrMapper addrmap.Mapper
	channels   []*org.Channel
}

func newController(mapper addrmap.Mapper, channels []*org.Channel) *Controller {
	return &Controller{addrMapper: mapper, channels: channels}
}

// AddressMapper returns the controller's (read-only) address decoder.
func (c *Controller) AddressMapper() addrmap.Mapper { return c.addrMapper }

// Channels returns the controller's channels, in configuration order.
func (c *Controller) Channels() []*org.Channel { return c.channels }

// Size returns the total addressable DRAM capacity in bytes.
func (c *Controller) Size() uint64 { return c.addrMapper.Size() }

// Operate advances the controller by one tick: it drains a contiguous,
// backpressure-respecting prefix of every upstream's queues into the
// owning channel's RQ/WQ, then ticks every channel once. It reports
// whether any channel made observable progress.
func (c *Controller) Operate(now Time, upstreams []Upstream) bool {
	c.initiateRequests(now, upstreams)

	progress := false
	for _, ch := range c.channels {
		progress = ch.Tick(now) || progress
	}

	return progress
}

func (c *Controller) initiateRequests(now Time, upstreams []Upstream) {
	for _, ul := range upstreams {
		c.drainQueue(ul.PeekRQ, ul.PopRQ, func(pkt *signal.Packet) bool {
			return c.addRQ(pkt, ul, now)
		})
		c.drainQueue(ul.PeekPQ, ul.PopPQ, func(pkt *signal.Packet) bool {
			return c.addRQ(pkt, ul, now)
		})
		c.drainQueue(ul.PeekWQ, ul.PopWQ, func(pkt *signal.Packet) bool {
			return c.addWQ(pkt, now)
		})
	}
}

// drainQueue admits a contiguous prefix of a single upstream queue,
// stopping at (and leaving in place) the first packet that fails to
// admit — the backpressure rule of spec.md §4.2.
func (c *Controller) drainQueue(
	peek func() (*signal.Packet, bool),
	pop func(),
	admit func(*signal.Packet) bool,
) {
	for {
		pkt, ok := peek()
		if !ok {
			return
		}

		if !admit(pkt) {
			return
		}

		pop()
	}
}

// addRQ implements spec.md §4.2 add_rq: decode the channel, admit into
// its RQ, and — only if the upstream asked for a response — register the
// upstream's return sink on the packet.
func (c *Controller) addRQ(pkt *signal.Packet, ul Upstream, now Time) bool {
	ch := c.channelFor(pkt.Address)

	if pkt.ResponseRequested {
		pkt.ToReturn = pkt.ToReturn.Add(ul.Returned())
	}

	return ch.AdmitRead(pkt, now)
}

// addWQ implements spec.md §4.2 add_wq.
func (c *Controller) addWQ(pkt *signal.Packet, now Time) bool {
	ch := c.channelFor(pkt.Address)

	return ch.AdmitWrite(pkt, now)
}

func (c *Controller) channelFor(addr uint64) *org.Channel {
	idx := c.addrMapper.GetChannel(addr)

	return c.channels[idx]
}

// BeginPhase resets every channel's sim_stats for a new measurement
// phase.
func (c *Controller) BeginPhase() {
	for _, ch := range c.channels {
		ch.BeginPhase()
	}
}

// EndPhase snapshots every channel's sim_stats into its roi_stats.
func (c *Controller) EndPhase() {
	for _, ch := range c.channels {
		ch.EndPhase()
	}
}

// PrintDeadlock dumps, per channel, every live RQ and WQ entry's address
// and v_address, matching MEMORY_CONTROLLER::print_deadlock.
func (c *Controller) PrintDeadlock(w io.Writer) {
	for i, ch := range c.channels {
		fmt.Fprintf(w, "DRAM Channel %d\n", i)

		for _, entry := range ch.DeadlockEntries() {
			fmt.Fprintf(w, "  %s address: %#x v_addr: %#x\n", entry.Queue, entry.Address, entry.VAddress)
		}
	}
}
