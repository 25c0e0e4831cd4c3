// Package mem defines the wire messages exchanged between an upstream
// cache channel and the controller's Comp adapter.
package mem

import (
	"github.com/rs/xid"

	"github.com/sarchlab/dramctl/internal/modeling"
)

// AccessReq is shared by ReadReq and WriteReq.
type AccessReq interface {
	modeling.Msg
	GetAddress() uint64
}

// AccessRsp is shared by DataReadyRsp and WriteDoneRsp.
type AccessRsp interface {
	modeling.Msg
	GetRspTo() string
}

// ReadReq asks the controller to fetch the block at Address.
type ReadReq struct {
	modeling.MsgMeta

	Address uint64
	ASID    [2]int32
}

// Meta returns the message metadata.
func (r *ReadReq) Meta() modeling.MsgMeta { return r.MsgMeta }

// GetAddress returns the address the request accesses.
func (r *ReadReq) GetAddress() uint64 { return r.Address }

// ReadReqBuilder builds ReadReq messages.
type ReadReqBuilder struct {
	src, dst modeling.RemotePort
	address  uint64
	asid     [2]int32
}

// WithSrc sets the source port of the request to build.
func (b ReadReqBuilder) WithSrc(src modeling.RemotePort) ReadReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the request to build.
func (b ReadReqBuilder) WithDst(dst modeling.RemotePort) ReadReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the address of the request to build.
func (b ReadReqBuilder) WithAddress(address uint64) ReadReqBuilder {
	b.address = address
	return b
}

// WithASID sets the address-space ID pass-through of the request to build.
func (b ReadReqBuilder) WithASID(asid [2]int32) ReadReqBuilder {
	b.asid = asid
	return b
}

// Build creates a new ReadReq.
func (b ReadReqBuilder) Build() *ReadReq {
	return &ReadReq{
		MsgMeta: modeling.MsgMeta{ID: xid.New().String(), Src: b.src, Dst: b.dst},
		Address: b.address,
		ASID:    b.asid,
	}
}

// WriteReq asks the controller to write Data at Address.
type WriteReq struct {
	modeling.MsgMeta

	Address uint64
	Data    []byte
	ASID    [2]int32
}

// Meta returns the message metadata.
func (r *WriteReq) Meta() modeling.MsgMeta { return r.MsgMeta }

// GetAddress returns the address the request accesses.
func (r *WriteReq) GetAddress() uint64 { return r.Address }

// WriteReqBuilder builds WriteReq messages.
type WriteReqBuilder struct {
	src, dst modeling.RemotePort
	address  uint64
	data     []byte
	asid     [2]int32
}

// WithSrc sets the source port of the request to build.
func (b WriteReqBuilder) WithSrc(src modeling.RemotePort) WriteReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the request to build.
func (b WriteReqBuilder) WithDst(dst modeling.RemotePort) WriteReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the address of the request to build.
func (b WriteReqBuilder) WithAddress(address uint64) WriteReqBuilder {
	b.address = address
	return b
}

// WithData sets the data of the request to build.
func (b WriteReqBuilder) WithData(data []byte) WriteReqBuilder {
	b.data = data
	return b
}

// WithASID sets the address-space ID pass-through of the request to build.
func (b WriteReqBuilder) WithASID(asid [2]int32) WriteReqBuilder {
	b.asid = asid
	return b
}

// Build creates a new WriteReq.
func (b WriteReqBuilder) Build() *WriteReq {
	return &WriteReq{
		MsgMeta: modeling.MsgMeta{ID: xid.New().String(), Src: b.src, Dst: b.dst},
		Address: b.address,
		Data:    b.data,
		ASID:    b.asid,
	}
}

// DataReadyRsp carries the data loaded by a completed ReadReq.
type DataReadyRsp struct {
	modeling.MsgMeta

	RespondTo string
	Data      []byte
}

// Meta returns the message metadata.
func (r *DataReadyRsp) Meta() modeling.MsgMeta { return r.MsgMeta }

// GetRspTo returns the ID of the request this responds to.
func (r *DataReadyRsp) GetRspTo() string { return r.RespondTo }

// DataReadyRspBuilder builds DataReadyRsp messages.
type DataReadyRspBuilder struct {
	src, dst modeling.RemotePort
	rspTo    string
	data     []byte
}

// WithSrc sets the source port of the response to build.
func (b DataReadyRspBuilder) WithSrc(src modeling.RemotePort) DataReadyRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the response to build.
func (b DataReadyRspBuilder) WithDst(dst modeling.RemotePort) DataReadyRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request the response to build answers.
func (b DataReadyRspBuilder) WithRspTo(id string) DataReadyRspBuilder {
	b.rspTo = id
	return b
}

// WithData sets the data of the response to build.
func (b DataReadyRspBuilder) WithData(data []byte) DataReadyRspBuilder {
	b.data = data
	return b
}

// Build creates a new DataReadyRsp.
func (b DataReadyRspBuilder) Build() *DataReadyRsp {
	return &DataReadyRsp{
		MsgMeta:   modeling.MsgMeta{ID: xid.New().String(), Src: b.src, Dst: b.dst},
		RespondTo: b.rspTo,
		Data:      b.data,
	}
}

// WriteDoneRsp marks a WriteReq as completed.
type WriteDoneRsp struct {
	modeling.MsgMeta

	RespondTo string
}

// Meta returns the message metadata.
func (r *WriteDoneRsp) Meta() modeling.MsgMeta { return r.MsgMeta }

// GetRspTo returns the ID of the request this responds to.
func (r *WriteDoneRsp) GetRspTo() string { return r.RespondTo }

// WriteDoneRspBuilder builds WriteDoneRsp messages.
type WriteDoneRspBuilder struct {
	src, dst modeling.RemotePort
	rspTo    string
}

// WithSrc sets the source port of the response to build.
func (b WriteDoneRspBuilder) WithSrc(src modeling.RemotePort) WriteDoneRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination port of the response to build.
func (b WriteDoneRspBuilder) WithDst(dst modeling.RemotePort) WriteDoneRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request the response to build answers.
func (b WriteDoneRspBuilder) WithRspTo(id string) WriteDoneRspBuilder {
	b.rspTo = id
	return b
}

// Build creates a new WriteDoneRsp.
func (b WriteDoneRspBuilder) Build() *WriteDoneRsp {
	return &WriteDoneRsp{
		MsgMeta:   modeling.MsgMeta{ID: xid.New().String(), Src: b.src, Dst: b.dst},
		RespondTo: b.rspTo,
	}
}
