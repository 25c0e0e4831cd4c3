package modeling_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/dramctl/internal/modeling"
)

type sampleMsg struct {
	modeling.MsgMeta
}

func (m *sampleMsg) Meta() modeling.MsgMeta { return m.MsgMeta }

var _ = Describe("FIFOPort", func() {
	It("rejects delivery once the incoming buffer is full", func() {
		p := modeling.NewFIFOPort("P", 1, 1)

		Expect(p.Deliver(&sampleMsg{})).To(BeTrue())
		Expect(p.Deliver(&sampleMsg{})).To(BeFalse())
	})

	It("returns messages in FIFO order", func() {
		p := modeling.NewFIFOPort("P", 4, 4)

		first := &sampleMsg{MsgMeta: modeling.MsgMeta{ID: "1"}}
		second := &sampleMsg{MsgMeta: modeling.MsgMeta{ID: "2"}}

		Expect(p.Deliver(first)).To(BeTrue())
		Expect(p.Deliver(second)).To(BeTrue())

		Expect(p.RetrieveIncoming()).To(BeIdenticalTo(modeling.Msg(first)))
		Expect(p.RetrieveIncoming()).To(BeIdenticalTo(modeling.Msg(second)))
		Expect(p.RetrieveIncoming()).To(BeNil())
	})
})

var _ = Describe("Connect", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("moves a message from src's outgoing buffer to dst's incoming buffer", func() {
		src := modeling.NewFIFOPort("Src", 4, 4)
		dst := modeling.NewFIFOPort("Dst", 4, 4)

		msg := &sampleMsg{MsgMeta: modeling.MsgMeta{ID: "1"}}
		Expect(src.Send(msg)).To(BeTrue())

		Expect(modeling.Connect(src, dst)).To(BeTrue())

		Expect(src.PeekOutgoing()).To(BeNil())
		Expect(dst.RetrieveIncoming()).To(BeIdenticalTo(modeling.Msg(msg)))
	})

	It("leaves the message in place when the destination refuses delivery", func() {
		src := modeling.NewFIFOPort("Src", 4, 4)
		dst := NewMockPort(mockCtrl)

		msg := &sampleMsg{MsgMeta: modeling.MsgMeta{ID: "1"}}
		Expect(src.Send(msg)).To(BeTrue())

		dst.EXPECT().Deliver(modeling.Msg(msg)).Return(false)

		Expect(modeling.Connect(src, dst)).To(BeFalse())
		Expect(src.PeekOutgoing()).To(BeIdenticalTo(modeling.Msg(msg)))
	})

	It("reports no movement when src has nothing outgoing", func() {
		src := modeling.NewFIFOPort("Src", 4, 4)
		dst := modeling.NewFIFOPort("Dst", 4, 4)

		Expect(modeling.Connect(src, dst)).To(BeFalse())
	})
})
