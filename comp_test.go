package dramctl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/dramctl"
	"github.com/sarchlab/dramctl/internal/modeling"
	"github.com/sarchlab/dramctl/mem"
)

func tickCompUntil(comp *dramctl.Comp, maxTicks int, done func() bool) {
	var now dramctl.Time

	for i := 0; i < maxTicks && !done(); i++ {
		comp.Tick(now)
		now++
	}
}

var _ = Describe("Comp", func() {
	It("answers a ReadReq with a DataReadyRsp addressed to the same request ID", func() {
		comp := dramctl.MakeBuilder().WithNumChannel(1).Build("MC")

		req := mem.ReadReqBuilder{}.
			WithSrc("Cache.Top").
			WithDst(modeling.RemotePort(comp.TopPort().Name())).
			WithAddress(128).
			Build()

		Expect(comp.TopPort().Deliver(req)).To(BeTrue())

		var rsp *mem.DataReadyRsp

		tickCompUntil(comp, 100000, func() bool {
			msg := comp.TopPort().RetrieveOutgoing()
			if msg == nil {
				return false
			}

			r, ok := msg.(*mem.DataReadyRsp)
			if !ok {
				return false
			}

			rsp = r

			return true
		})

		Expect(rsp).NotTo(BeNil())
		Expect(rsp.GetRspTo()).To(Equal(req.Meta().ID))
	})

	It("answers a WriteReq with a WriteDoneRsp", func() {
		comp := dramctl.MakeBuilder().WithNumChannel(1).Build("MC")

		req := mem.WriteReqBuilder{}.
			WithSrc("Cache.Top").
			WithDst(modeling.RemotePort(comp.TopPort().Name())).
			WithAddress(256).
			WithData([]byte{0xDE, 0xAD}).
			Build()

		Expect(comp.TopPort().Deliver(req)).To(BeTrue())

		var rsp *mem.WriteDoneRsp

		tickCompUntil(comp, 100000, func() bool {
			msg := comp.TopPort().RetrieveOutgoing()
			if msg == nil {
				return false
			}

			r, ok := msg.(*mem.WriteDoneRsp)
			if !ok {
				return false
			}

			rsp = r

			return true
		})

		Expect(rsp).NotTo(BeNil())
		Expect(rsp.GetRspTo()).To(Equal(req.Meta().ID))
	})

	It("exposes its channels through the diagnostics-facing Channels accessor", func() {
		comp := dramctl.MakeBuilder().WithNumChannel(3).Build("MC")

		Expect(comp.Channels()).To(HaveLen(3))
		Expect(comp.Name()).To(Equal("MC"))
	})
})
