package dramctl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramctl"
	"github.com/sarchlab/dramctl/internal/signal"
)

// recordingSink collects every response pushed to it, in order.
type recordingSink struct {
	responses []signal.Response
}

func (s *recordingSink) PushResponse(r signal.Response) {
	s.responses = append(s.responses, r)
}

// fakeUpstream is a minimal dramctl.Upstream backed by plain slices, used
// to drive Controller.Operate directly without going through a Comp.
type fakeUpstream struct {
	rq, wq []*signal.Packet
	sink   *recordingSink
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{sink: &recordingSink{}}
}

func (u *fakeUpstream) PeekRQ() (*signal.Packet, bool) {
	if len(u.rq) == 0 {
		return nil, false
	}

	return u.rq[0], true
}

func (u *fakeUpstream) PeekPQ() (*signal.Packet, bool) { return nil, false }

func (u *fakeUpstream) PeekWQ() (*signal.Packet, bool) {
	if len(u.wq) == 0 {
		return nil, false
	}

	return u.wq[0], true
}

func (u *fakeUpstream) PopRQ() { u.rq = u.rq[1:] }
func (u *fakeUpstream) PopPQ() {}
func (u *fakeUpstream) PopWQ() { u.wq = u.wq[1:] }

func (u *fakeUpstream) Returned() signal.ReturnSink { return u.sink }

func readReq(addr uint64) *signal.Packet {
	pkt := signal.NewPacket(addr, addr, nil)
	pkt.ResponseRequested = true

	return pkt
}

var _ = Describe("Controller", func() {
	It("stops draining an upstream's RQ at the first packet that fails to admit", func() {
		comp := dramctl.MakeBuilder().
			WithNumChannel(1).
			WithRQCapacity(1).
			Build("MC")
		ctl := comp.Controller()

		up := newFakeUpstream()
		up.rq = []*signal.Packet{readReq(0), readReq(64)}

		ctl.Operate(0, []dramctl.Upstream{up})

		Expect(up.rq).To(HaveLen(1), "the second packet must be left in place once the RQ is full")
		Expect(up.rq[0].Address).To(Equal(uint64(64)))
	})

	It("routes an admitted read to completion and delivers exactly one response", func() {
		comp := dramctl.MakeBuilder().
			WithNumChannel(1).
			Build("MC")
		ctl := comp.Controller()

		up := newFakeUpstream()
		up.rq = []*signal.Packet{readReq(0)}

		var now dramctl.Time

		for i := 0; i < 100000 && len(up.sink.responses) == 0; i++ {
			ctl.Operate(now, []dramctl.Upstream{up})
			now++
		}

		Expect(up.sink.responses).To(HaveLen(1))
		Expect(up.sink.responses[0].Address).To(Equal(uint64(0)))
	})

	It("routes distinct addresses to their decoded channel", func() {
		comp := dramctl.MakeBuilder().
			WithNumChannel(2).
			Build("MC")
		ctl := comp.Controller()

		mapper := ctl.AddressMapper()
		Expect(mapper.Channels()).To(Equal(uint64(2)))

		// With the default geometry the channel field is bit 17.
		addrs := []uint64{0, 1 << 17}
		Expect(mapper.GetChannel(addrs[0])).NotTo(Equal(mapper.GetChannel(addrs[1])))

		up := newFakeUpstream()
		up.rq = []*signal.Packet{readReq(addrs[0]), readReq(addrs[1])}

		ctl.Operate(0, []dramctl.Upstream{up})

		for _, addr := range addrs {
			for i, ch := range ctl.Channels() {
				found := false

				for _, entry := range ch.DeadlockEntries() {
					if entry.Address == addr {
						found = true
					}
				}

				Expect(found).To(Equal(uint64(i) == mapper.GetChannel(addr)),
					"the admitted packet should be visible in exactly the channel it decoded to")
			}
		}
	})

	It("resets sim stats on BeginPhase and preserves them in roi stats after EndPhase", func() {
		comp := dramctl.MakeBuilder().WithNumChannel(1).WithWQCapacity(1).Build("MC")
		ctl := comp.Controller()

		up := newFakeUpstream()
		up.wq = []*signal.Packet{signal.NewPacket(0, 0, []byte{1}), signal.NewPacket(64, 64, []byte{2})}

		ctl.BeginPhase()
		ctl.Operate(0, []dramctl.Upstream{up})
		ctl.EndPhase()

		Expect(ctl.Channels()[0].RoiStats.WQFull).To(Equal(uint64(1)))

		ctl.BeginPhase()
		Expect(ctl.Channels()[0].Stats.WQFull).To(BeZero())
		Expect(ctl.Channels()[0].RoiStats.WQFull).To(Equal(uint64(1)))
	})
})
