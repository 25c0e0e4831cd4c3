package org

import (
	"github.com/sarchlab/dramctl/internal/addrmap"
	"github.com/sarchlab/dramctl/internal/hooking"
	"github.com/sarchlab/dramctl/internal/signal"
)

// noActive is the sentinel activeIndex value meaning "no bank_request is
// currently on the data bus", the Go equivalent of the source's
// `active_request == std::end(bank_request)`.
const noActive = -1

// Config bundles the per-channel timing and capacity parameters that
// spec.md §6 lists under "Configuration".
type Config struct {
	Name string

	ClockPeriod signal.Time
	TRP         signal.Time
	TRCD        signal.Time
	TCAS        signal.Time
	Turnaround  signal.Time

	ChannelWidthBytes int
	PrefetchSize      int

	RQCapacity int
	WQCapacity int

	AddrMapper addrmap.Mapper
}

// Channel owns one read queue, one write queue, its bank state array, and
// the single active data-bus slot. It performs collision checks,
// scheduling, and bus arbitration once per Tick.
type Channel struct {
	hooking.HookableBase

	name string

	clockPeriod    signal.Time
	tRP, tRCD      signal.Time
	tCAS           signal.Time
	turnaround     signal.Time
	dbusReturnTime signal.Time

	addrMapper addrmap.Mapper

	RQ []*signal.Request
	WQ []*signal.Request

	bankRequest []BankRequest
	activeIndex int

	dbusCycleAvailable signal.Time
	writeMode          bool
	currentTime        signal.Time

	Warmup bool

	Stats    Stats
	RoiStats Stats
}

// New builds a Channel from cfg. RQ, WQ, and the bank_request array are
// fixed-size slot arrays: a nil slot is an empty slot, and slot indices
// never move once occupied, which is what lets BankRequest.Index remain
// valid across ticks.
func New(cfg Config) *Channel {
	numBanks := int(cfg.AddrMapper.Ranks() * cfg.AddrMapper.Banks())

	c := &Channel{
		name:           cfg.Name,
		clockPeriod:    cfg.ClockPeriod,
		tRP:            cfg.TRP,
		tRCD:           cfg.TRCD,
		tCAS:           cfg.TCAS,
		turnaround:     cfg.Turnaround,
		dbusReturnTime: cfg.ClockPeriod * signal.Time(cfg.PrefetchSize),
		addrMapper:     cfg.AddrMapper,
		RQ:             make([]*signal.Request, cfg.RQCapacity),
		WQ:             make([]*signal.Request, cfg.WQCapacity),
		bankRequest:    make([]BankRequest, numBanks),
		activeIndex:    noActive,
	}
	c.Stats.Name = cfg.Name
	c.RoiStats.Name = cfg.Name

	return c
}

// Name returns the channel's identifying name, used by diagnostics.
func (c *Channel) Name() string { return c.name }

// CurrentTime returns the time of the tick most recently processed.
func (c *Channel) CurrentTime() signal.Time { return c.currentTime }

// ClockPeriod returns the picosecond duration of one clock cycle, as
// configured at construction time.
func (c *Channel) ClockPeriod() signal.Time { return c.clockPeriod }

// WriteMode reports whether the channel is currently draining its write
// queue rather than its read queue.
func (c *Channel) WriteMode() bool { return c.writeMode }

// AdmitRead places pkt into the first empty RQ slot, returning false if
// the queue is full. now becomes the request's initial ready_time.
func (c *Channel) AdmitRead(pkt *signal.Packet, now signal.Time) bool {
	for i, req := range c.RQ {
		if req == nil {
			c.RQ[i] = signal.NewRequest(pkt.Address-c.addrMapper.GetOffset(pkt.Address), pkt, now)

			return true
		}
	}

	return false
}

// AdmitWrite places pkt into the first empty WQ slot, returning false (and
// bumping WQFull) if the queue is full.
func (c *Channel) AdmitWrite(pkt *signal.Packet, now signal.Time) bool {
	for i, req := range c.WQ {
		if req == nil {
			c.WQ[i] = signal.NewRequest(pkt.Address-c.addrMapper.GetOffset(pkt.Address), pkt, now)

			return true
		}
	}

	c.Stats.WQFull++

	return false
}

// Tick advances the channel by one clock, executing the seven steps of
// spec.md §4.3 in order. It reports whether any observable progress
// (a completed transfer, a bank result moved onto the bus, a newly
// scheduled request, or a queue slot drained during warmup) was made.
func (c *Channel) Tick(now signal.Time) bool {
	c.currentTime = now

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{Domain: c, Pos: hooking.HookPosBeforeChannelTick, Detail: now})
	}

	if c.Warmup {
		return c.tickWarmup()
	}

	c.checkWriteCollision()
	c.checkReadCollision()

	progress := c.finishDBusRequest()
	c.swapWriteMode()
	progress = c.populateDBus() || progress
	progress = c.schedulePackets() || progress

	return progress
}

func (c *Channel) tickWarmup() bool {
	progress := false

	for i, req := range c.RQ {
		if req == nil {
			continue
		}

		for _, pkt := range req.Packets {
			pkt.ToReturn.PushAll(signal.ResponseFromPacket(pkt, pkt.Data))
		}

		c.RQ[i] = nil
		progress = true
	}

	for i, req := range c.WQ {
		if req == nil {
			continue
		}

		c.WQ[i] = nil
		progress = true
	}

	return progress
}

// checkWriteCollision implements spec.md §4.3 step 2: an entry that
// collides in the block sense with any other live WQ entry is dropped
// (the older entry dominates); a non-colliding entry is marked checked so
// it is not rescanned every tick.
func (c *Channel) checkWriteCollision() {
	for i, req := range c.WQ {
		if req == nil || req.ForwardChecked {
			continue
		}

		if c.collidesInQueue(c.WQ, req.Address, i) {
			c.WQ[i] = nil
			continue
		}

		req.ForwardChecked = true
	}
}

func (c *Channel) collidesInQueue(queue []*signal.Request, addr uint64, self int) bool {
	for j, other := range queue {
		if j == self || other == nil {
			continue
		}

		if c.addrMapper.SameBlock(other.Address, addr) {
			return true
		}
	}

	return false
}

// checkReadCollision implements spec.md §4.3 step 3: write-to-read
// forwarding takes priority over read-to-read coalescing.
func (c *Channel) checkReadCollision() {
	for i, req := range c.RQ {
		if req == nil || req.ForwardChecked {
			continue
		}

		if wqIdx, ok := c.findInQueue(c.WQ, req.Address, -1); ok {
			c.forwardFromWrite(req, c.WQ[wqIdx])
			c.RQ[i] = nil

			continue
		}

		if rqIdx, ok := c.findInQueue(c.RQ, req.Address, i); ok {
			c.mergeInto(c.RQ[rqIdx], req)
			c.RQ[i] = nil

			continue
		}

		req.ForwardChecked = true
	}
}

// findInQueue scans queue for a live entry matching addr's block, skipping
// index self. When self is -1 (the write-queue case) it is a plain
// forward scan; otherwise it checks indices before self and then after,
// matching the "both directions" search spec.md describes.
func (c *Channel) findInQueue(queue []*signal.Request, addr uint64, self int) (int, bool) {
	if self < 0 {
		for j, other := range queue {
			if other != nil && c.addrMapper.SameBlock(other.Address, addr) {
				return j, true
			}
		}

		return 0, false
	}

	for j := 0; j < self; j++ {
		if queue[j] != nil && c.addrMapper.SameBlock(queue[j].Address, addr) {
			return j, true
		}
	}

	for j := self + 1; j < len(queue); j++ {
		if queue[j] != nil && c.addrMapper.SameBlock(queue[j].Address, addr) {
			return j, true
		}
	}

	return 0, false
}

func (c *Channel) forwardFromWrite(rq, wq *signal.Request) {
	data := wq.FirstPacket().Data

	for _, pkt := range rq.Packets {
		pkt.ToReturn.PushAll(signal.ResponseFromPacket(pkt, data))
	}
}

func (c *Channel) mergeInto(into, src *signal.Request) {
	for _, pkt := range src.Packets {
		into.MergePacket(pkt)
	}
}

// finishDBusRequest implements spec.md §4.3 step 4.
func (c *Channel) finishDBusRequest() bool {
	if c.activeIndex == noActive {
		return false
	}

	active := &c.bankRequest[c.activeIndex]
	if active.ReadyTime > c.currentTime {
		return false
	}

	req := c.requestAt(active.Queue, active.Index)
	for _, pkt := range req.Packets {
		pkt.ToReturn.PushAll(signal.ResponseFromPacket(pkt, pkt.Data))
	}

	active.Invalidate()
	c.clearSlot(active.Queue, active.Index)
	c.activeIndex = noActive

	return true
}

// swapWriteMode implements spec.md §4.3 step 5.
func (c *Channel) swapWriteMode() {
	wqOccupancy := c.occupancy(c.WQ)
	rqOccupancy := c.occupancy(c.RQ)

	high := (len(c.WQ) * 7) >> 3
	low := (len(c.WQ) * 6) >> 3

	shouldSwitch := (!c.writeMode && (wqOccupancy >= high || (rqOccupancy == 0 && wqOccupancy > 0))) ||
		(c.writeMode && (wqOccupancy == 0 || (rqOccupancy > 0 && wqOccupancy < low)))

	if !shouldSwitch {
		return
	}

	for i := range c.bankRequest {
		if i == c.activeIndex || !c.bankRequest[i].Valid {
			continue
		}

		br := &c.bankRequest[i]
		if br.ReadyTime < c.currentTime+c.tCAS {
			br.ClearOpenRow()
		}

		br.Invalidate()

		req := c.requestAt(br.Queue, br.Index)
		req.Scheduled = false
		req.ReadyTime = c.currentTime
	}

	if c.activeIndex != noActive {
		c.dbusCycleAvailable = c.bankRequest[c.activeIndex].ReadyTime + c.turnaround
	} else {
		c.dbusCycleAvailable = c.currentTime + c.turnaround
	}

	c.writeMode = !c.writeMode

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{Domain: c, Pos: hooking.HookPosModeSwitch, Detail: c.writeMode})
	}
}

func (c *Channel) occupancy(queue []*signal.Request) int {
	n := 0

	for _, req := range queue {
		if req != nil {
			n++
		}
	}

	return n
}

// populateDBus implements spec.md §4.3 step 6.
func (c *Channel) populateDBus() bool {
	idx := c.earliestReadyBank()
	if idx == noActive || c.bankRequest[idx].ReadyTime > c.currentTime {
		return false
	}

	if c.activeIndex == noActive && c.dbusCycleAvailable <= c.currentTime {
		br := &c.bankRequest[idx]
		c.activeIndex = idx
		br.ReadyTime = c.currentTime + c.dbusReturnTime
		c.recordRowBufferOutcome(br.RowBufferHit)

		if c.NumHooks() > 0 {
			c.InvokeHook(hooking.HookCtx{Domain: c, Pos: hooking.HookPosBusPopulated, Detail: idx})
		}

		return true
	}

	var wait signal.Time
	if c.activeIndex != noActive {
		wait = c.bankRequest[c.activeIndex].ReadyTime - c.currentTime
	} else {
		wait = c.dbusCycleAvailable - c.currentTime
	}

	c.Stats.DBusCycleCongested += wait
	c.Stats.DBusCountCongested++

	return false
}

// earliestReadyBank returns the valid bank_request with the smallest
// ready_time, stable on insertion order (the first minimal element wins),
// matching std::min_element over the bank_request array.
func (c *Channel) earliestReadyBank() int {
	best := noActive

	for i := range c.bankRequest {
		if !c.bankRequest[i].Valid {
			continue
		}

		if best == noActive || c.bankRequest[i].ReadyTime < c.bankRequest[best].ReadyTime {
			best = i
		}
	}

	return best
}

func (c *Channel) recordRowBufferOutcome(hit bool) {
	switch {
	case hit && c.writeMode:
		c.Stats.WQRowBufferHit++
	case hit && !c.writeMode:
		c.Stats.RQRowBufferHit++
	case !hit && c.writeMode:
		c.Stats.WQRowBufferMiss++
	default:
		c.Stats.RQRowBufferMiss++
	}
}

// schedulePackets implements spec.md §4.3 step 7.
func (c *Channel) schedulePackets() bool {
	queueKind, queue := signal.ReadQueue, c.RQ
	if c.writeMode {
		queueKind, queue = signal.WriteQueue, c.WQ
	}

	idx := c.pickCandidate(queue)
	if idx == noActive {
		return false
	}

	req := queue[idx]
	if req.ReadyTime > c.currentTime {
		return false
	}

	bankIdx := int(c.addrMapper.BankIndex(req.Address))

	br := &c.bankRequest[bankIdx]
	if br.Valid {
		return false
	}

	row := c.addrMapper.GetRow(req.Address)
	hit := br.OpenRow != nil && *br.OpenRow == row

	delay := c.tCAS
	if !hit {
		delay += c.tRP + c.tRCD
	}

	*br = BankRequest{
		Valid:        true,
		RowBufferHit: hit,
		OpenRow:      &row,
		ReadyTime:    c.currentTime + delay,
		Queue:        queueKind,
		Index:        idx,
	}

	req.Scheduled = true
	req.ReadyTime = signal.Infinity

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{Domain: c, Pos: hooking.HookPosBankScheduled, Detail: *br})
	}

	return true
}

// pickCandidate chooses the next queue entry to schedule: a free-bank
// candidate is always preferred over a busy-bank one, and among free-bank
// candidates the smallest ready_time wins (last found on ties, matching
// std::min_element's replace-on-<= comparator over a forward walk). When
// no candidate has a free bank, the first schedulable entry encountered is
// returned so that the caller's subsequent "is the bank free" check
// correctly declines to schedule anything this tick.
func (c *Channel) pickCandidate(queue []*signal.Request) int {
	idx := noActive
	idxFree := false

	for i, req := range queue {
		if req == nil || req.Scheduled {
			continue
		}

		bankIdx := int(c.addrMapper.BankIndex(req.Address))
		free := c.bankRequest[bankIdx].Idle()

		switch {
		case idx == noActive:
			idx, idxFree = i, free
		case free && !idxFree:
			idx, idxFree = i, free
		case free == idxFree && free && req.ReadyTime <= queue[idx].ReadyTime:
			idx = i
		}
	}

	return idx
}

func (c *Channel) requestAt(kind signal.QueueKind, idx int) *signal.Request {
	if kind == signal.WriteQueue {
		return c.WQ[idx]
	}

	return c.RQ[idx]
}

func (c *Channel) clearSlot(kind signal.QueueKind, idx int) {
	if kind == signal.WriteQueue {
		c.WQ[idx] = nil
	} else {
		c.RQ[idx] = nil
	}
}

// BeginPhase resets sim_stats for a new measurement phase.
func (c *Channel) BeginPhase() {
	name := c.Stats.Name
	c.Stats = Stats{Name: name}
}

// EndPhase snapshots the current sim_stats into RoiStats.
func (c *Channel) EndPhase() {
	c.RoiStats = c.Stats
}

// DeadlockEntry is one live queue slot as reported by print_deadlock.
type DeadlockEntry struct {
	Queue    string
	Address  uint64
	VAddress uint64
}

// DeadlockEntries dumps every live RQ and WQ slot, one entry per packet,
// for print_deadlock.
func (c *Channel) DeadlockEntries() []DeadlockEntry {
	var entries []DeadlockEntry

	entries = append(entries, dumpQueue("RQ", c.RQ)...)
	entries = append(entries, dumpQueue("WQ", c.WQ)...)

	return entries
}

func dumpQueue(name string, queue []*signal.Request) []DeadlockEntry {
	var entries []DeadlockEntry

	for _, req := range queue {
		if req == nil {
			continue
		}

		for _, pkt := range req.Packets {
			entries = append(entries, DeadlockEntry{
				Queue:    name,
				Address:  pkt.Address,
				VAddress: pkt.VAddress,
			})
		}
	}

	return entries
}
