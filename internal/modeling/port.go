package modeling

import "sync"

//go:generate mockgen -destination mock_modeling_test.go -package modeling_test github.com/sarchlab/dramctl/internal/modeling Port

// Port is owned by a component and buffers messages moving in and out of
// it. It is deliberately connection-agnostic: a Comp uses it to hold
// wire messages between ticks, and something outside this package (a
// test, or a real interconnect) is responsible for moving messages
// between two ports' incoming/outgoing buffers.
type Port interface {
	Name() string

	// Deliver enqueues an inbound message, returning false if the
	// incoming buffer is full.
	Deliver(msg Msg) bool

	// PeekIncoming/RetrieveIncoming inspect and drain the incoming
	// buffer.
	PeekIncoming() Msg
	RetrieveIncoming() Msg

	// Send enqueues an outbound message, returning false if the outgoing
	// buffer is full.
	Send(msg Msg) bool

	// PeekOutgoing/RetrieveOutgoing inspect and drain the outgoing
	// buffer.
	PeekOutgoing() Msg
	RetrieveOutgoing() Msg
}

// FIFOPort is the default Port implementation: two fixed-capacity FIFO
// buffers, one per direction.
type FIFOPort struct {
	mu sync.Mutex

	name        string
	incoming    []Msg
	outgoing    []Msg
	incomingCap int
	outgoingCap int
}

// NewFIFOPort builds a named port with the given buffer capacities.
func NewFIFOPort(name string, incomingCap, outgoingCap int) *FIFOPort {
	return &FIFOPort{
		name:        name,
		incomingCap: incomingCap,
		outgoingCap: outgoingCap,
	}
}

// Name returns the port's name.
func (p *FIFOPort) Name() string { return p.name }

// Deliver enqueues an inbound message.
func (p *FIFOPort) Deliver(msg Msg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.incoming) >= p.incomingCap {
		return false
	}

	p.incoming = append(p.incoming, msg)

	return true
}

// PeekIncoming returns the head of the incoming buffer, or nil if empty.
func (p *FIFOPort) PeekIncoming() Msg {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.incoming) == 0 {
		return nil
	}

	return p.incoming[0]
}

// RetrieveIncoming removes and returns the head of the incoming buffer.
func (p *FIFOPort) RetrieveIncoming() Msg {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.incoming) == 0 {
		return nil
	}

	msg := p.incoming[0]
	p.incoming = p.incoming[1:]

	return msg
}

// Send enqueues an outbound message.
func (p *FIFOPort) Send(msg Msg) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.outgoing) >= p.outgoingCap {
		return false
	}

	p.outgoing = append(p.outgoing, msg)

	return true
}

// PeekOutgoing returns the head of the outgoing buffer, or nil if empty.
func (p *FIFOPort) PeekOutgoing() Msg {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.outgoing) == 0 {
		return nil
	}

	return p.outgoing[0]
}

// RetrieveOutgoing removes and returns the head of the outgoing buffer.
func (p *FIFOPort) RetrieveOutgoing() Msg {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.outgoing) == 0 {
		return nil
	}

	msg := p.outgoing[0]
	p.outgoing = p.outgoing[1:]

	return msg
}

// Connect moves at most one message from src's outgoing buffer into dst's
// incoming buffer, standing in for a zero-latency direct connection
// between two components' ports. It reports whether a message moved; a
// full dst leaves the message in src's outgoing buffer for the next
// attempt.
func Connect(src, dst Port) bool {
	msg := src.PeekOutgoing()
	if msg == nil {
		return false
	}

	if !dst.Deliver(msg) {
		return false
	}

	src.RetrieveOutgoing()

	return true
}
