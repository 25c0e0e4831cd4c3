package org_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramctl/internal/addrmap"
	"github.com/sarchlab/dramctl/internal/org"
	"github.com/sarchlab/dramctl/internal/signal"
)

// recordingSink collects every response pushed to it, in order.
type recordingSink struct {
	responses []signal.Response
}

func (s *recordingSink) PushResponse(r signal.Response) {
	s.responses = append(s.responses, r)
}

func newTestMapper() addrmap.Mapper {
	m, err := addrmap.New(8, 8, 1, 2, 64, 1, 4, 64)
	Expect(err).NotTo(HaveOccurred())

	return m
}

func newTestChannel(rqCap, wqCap int) *org.Channel {
	return org.New(org.Config{
		Name:              "TestChannel",
		ClockPeriod:       1,
		TRP:               2,
		TRCD:              2,
		TCAS:              2,
		Turnaround:        1,
		ChannelWidthBytes: 8,
		PrefetchSize:      8,
		RQCapacity:        rqCap,
		WQCapacity:        wqCap,
		AddrMapper:        newTestMapper(),
	})
}

func readPacket(addr uint64) (*signal.Packet, *recordingSink) {
	pkt := signal.NewPacket(addr, addr, nil)
	pkt.ResponseRequested = true
	sink := &recordingSink{}
	pkt.ToReturn = pkt.ToReturn.Add(sink)

	return pkt, sink
}

// tickUntil advances ch one picosecond at a time starting just after its
// current time, so successive calls never move the clock backward.
func tickUntil(ch *org.Channel, maxTicks int, done func() bool) {
	now := ch.CurrentTime()

	for i := 0; i < maxTicks && !done(); i++ {
		now++
		ch.Tick(now)
	}
}

var _ = Describe("Channel", func() {
	It("should reject admission once RQ is full", func() {
		ch := newTestChannel(2, 2)

		p1, _ := readPacket(0)
		p2, _ := readPacket(64)
		p3, _ := readPacket(128)

		Expect(ch.AdmitRead(p1, 0)).To(BeTrue())
		Expect(ch.AdmitRead(p2, 0)).To(BeTrue())
		Expect(ch.AdmitRead(p3, 0)).To(BeFalse())
	})

	It("should count WQFull once WQ is exhausted", func() {
		ch := newTestChannel(2, 1)

		p1 := signal.NewPacket(0, 0, []byte{1})
		p2 := signal.NewPacket(64, 64, []byte{2})

		Expect(ch.AdmitWrite(p1, 0)).To(BeTrue())
		Expect(ch.AdmitWrite(p2, 0)).To(BeFalse())
		Expect(ch.Stats.WQFull).To(Equal(uint64(1)))
	})

	It("should schedule a miss then hit the row buffer on a same-row access", func() {
		ch := newTestChannel(4, 4)

		miss, missSink := readPacket(0)   // row 0, bank 0
		hit, hitSink := readPacket(1 << 6) // row 0, bank 0, different column

		Expect(ch.AdmitRead(miss, 0)).To(BeTrue())

		tickUntil(ch, 20, func() bool { return len(missSink.responses) > 0 })
		Expect(missSink.responses).NotTo(BeEmpty())
		Expect(ch.Stats.RQRowBufferMiss).To(Equal(uint64(1)))

		Expect(ch.AdmitRead(hit, ch.CurrentTime())).To(BeTrue())
		tickUntil(ch, 20, func() bool { return len(hitSink.responses) > 0 })
		Expect(hitSink.responses).NotTo(BeEmpty())
		Expect(ch.Stats.RQRowBufferHit).To(Equal(uint64(1)))
	})

	It("should forward a colliding write's data to a pending read", func() {
		ch := newTestChannel(4, 4)

		data := []byte{0xAB}
		writePkt := signal.NewPacket(0, 0, data)
		readPkt, readSink := readPacket(5) // same block as address 0 (offset differs)

		Expect(ch.AdmitWrite(writePkt, 0)).To(BeTrue())
		Expect(ch.AdmitRead(readPkt, 0)).To(BeTrue())

		ch.Tick(0)

		Expect(readSink.responses).To(HaveLen(1))
		Expect(readSink.responses[0].Data).To(Equal(data))
	})

	It("should coalesce two reads to the same address into one response set", func() {
		ch := newTestChannel(4, 4)

		first, firstSink := readPacket(0)
		second, secondSink := readPacket(0)

		Expect(ch.AdmitRead(first, 0)).To(BeTrue())
		Expect(ch.AdmitRead(second, 0)).To(BeTrue())

		tickUntil(ch, 20, func() bool { return len(firstSink.responses) > 0 })

		Expect(firstSink.responses).To(HaveLen(1))
		Expect(secondSink.responses).To(HaveLen(1))
	})

	It("should switch to write mode once the high watermark is reached", func() {
		ch := newTestChannel(8, 8)

		// A pending read keeps the "RQ empty" shortcut from firing, so the
		// mode switch below can only be explained by the WQ high watermark.
		pendingRead, _ := readPacket(1 << 12)
		Expect(ch.AdmitRead(pendingRead, 0)).To(BeTrue())

		for i := 0; i < 7; i++ {
			pkt := signal.NewPacket(uint64(i)<<6, uint64(i)<<6, []byte{byte(i)})
			Expect(ch.AdmitWrite(pkt, 0)).To(BeTrue())
		}

		Expect(ch.WriteMode()).To(BeFalse())
		ch.Tick(0)
		Expect(ch.WriteMode()).To(BeTrue())
	})

	It("should answer every read and discard every write during warmup", func() {
		ch := newTestChannel(4, 4)
		ch.Warmup = true

		readPkt, readSink := readPacket(0)
		writePkt := signal.NewPacket(64, 64, []byte{1})

		Expect(ch.AdmitRead(readPkt, 0)).To(BeTrue())
		Expect(ch.AdmitWrite(writePkt, 0)).To(BeTrue())

		progress := ch.Tick(0)

		Expect(progress).To(BeTrue())
		Expect(readSink.responses).To(HaveLen(1))
		Expect(ch.DeadlockEntries()).To(BeEmpty())
	})
})
