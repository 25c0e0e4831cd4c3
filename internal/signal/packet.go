package signal

import "github.com/rs/xid"

// ASID is the pair of address-space identifiers a packet carries through
// the memory hierarchy. The DRAM core copies it verbatim and never
// interprets it.
type ASID [2]int32

// Packet is the per-cache-line unit inside a Request. Several packets can
// be coalesced into one Request when they target the same block.
type Packet struct {
	ID xid.ID

	Address    uint64
	VAddress   uint64
	Data       []byte
	PFMetadata int32
	ASID       ASID

	InstrDependOnMe InstrSet
	ToReturn        ReturnSinks

	// ResponseRequested mirrors the upstream request's ask for a response;
	// the controller registers the upstream's return sink on an admitted
	// read or prefetch packet only when it is set. Write admission ignores
	// it.
	ResponseRequested bool
}

// NewPacket stamps a fresh packet with a unique ID.
func NewPacket(address, vAddress uint64, data []byte) *Packet {
	return &Packet{
		ID:       xid.New(),
		Address:  address,
		VAddress: vAddress,
		Data:     data,
	}
}

// Response is the packet produced once a request has been serviced.
type Response struct {
	Address         uint64
	VAddress        uint64
	Data            []byte
	PFMetadata      int32
	InstrDependOnMe InstrSet
}

// ResponseFromPacket builds the response the core sends upstream once a
// packet's request completes. data is the payload actually stored in DRAM
// (or forwarded from a colliding write), which may differ from pkt.Data for
// a read that has not yet been serviced.
func ResponseFromPacket(pkt *Packet, data []byte) Response {
	return Response{
		Address:         pkt.Address,
		VAddress:        pkt.VAddress,
		Data:            data,
		PFMetadata:      pkt.PFMetadata,
		InstrDependOnMe: pkt.InstrDependOnMe,
	}
}
