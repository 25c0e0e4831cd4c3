// Package addrmap implements the DRAM_ADDRESS_MAPPING slicer: a pure
// function from a physical address to (offset, column, bank, rank,
// channel, row).
package addrmap

import (
	"errors"
	"fmt"
	"math/bits"
)

// Errors returned by New when the configuration violates a precondition
// that would silently corrupt address decoding rather than merely round
// down capacity.
var (
	ErrZeroPrefetchSize       = errors.New("addrmap: prefetch size must be nonzero")
	ErrMisalignedChannelWidth = errors.New("addrmap: channel_width_bytes * prefetch_size must be a multiple of the block size")
)

// field indexes bit slices from LSB (offset) to MSB (row), the same order
// the source assembles its contiguous extent set in.
type field int

const (
	fieldOffset field = iota
	fieldColumn
	fieldBank
	fieldRank
	fieldChannel
	fieldRow
	fieldCount
)

// Mapper decodes a physical address into its DRAM coordinates. It is a
// plain value: copy it or share a read-only reference, either is safe,
// since construction fixes every field once and for all.
type Mapper struct {
	widths [fieldCount]uint // bit width of each field
	shifts [fieldCount]uint // LSB position of each field
}

// New builds a Mapper for the given DRAM organization. blockSizeBytes is
// the cache block size that channelWidthBytes*prefetchSize must divide
// evenly into. Every count SHOULD be a power of two; non-powers are
// rounded down to the nearest power of two via lg2, which truncates
// addressable capacity but never corrupts the mapping of the addresses
// that remain valid.
func New(
	channelWidthBytes, prefetchSize, channels, banks, columns, ranks, rows int,
	blockSizeBytes int,
) (Mapper, error) {
	if prefetchSize <= 0 {
		return Mapper{}, ErrZeroPrefetchSize
	}

	if (channelWidthBytes*prefetchSize)%blockSizeBytes != 0 {
		return Mapper{}, fmt.Errorf("%w: %d*%d is not a multiple of %d",
			ErrMisalignedChannelWidth, channelWidthBytes, prefetchSize, blockSizeBytes)
	}

	m := Mapper{}
	m.widths[fieldOffset] = lg2(channelWidthBytes * prefetchSize)
	m.widths[fieldColumn] = lg2(columns / prefetchSize)
	m.widths[fieldBank] = lg2(banks)
	m.widths[fieldRank] = lg2(ranks)
	m.widths[fieldChannel] = lg2(channels)
	m.widths[fieldRow] = lg2(rows)

	shift := uint(0)
	for f := fieldOffset; f < fieldCount; f++ {
		m.shifts[f] = shift
		shift += m.widths[f]
	}

	return m, nil
}

// lg2 returns floor(log2(n)) for n >= 1, rounding non-powers-of-two down,
// exactly as the source's champsim::lg2 does. n <= 0 maps to a zero-width
// field (the dimension is configured away).
func lg2(n int) uint {
	if n <= 1 {
		return 0
	}

	return uint(bits.Len(uint(n)) - 1)
}

func (m Mapper) extract(addr uint64, f field) uint64 {
	mask := uint64(1)<<m.widths[f] - 1

	return (addr >> m.shifts[f]) & mask
}

// GetOffset returns the intra-block-transfer offset field.
func (m Mapper) GetOffset(addr uint64) uint64 { return m.extract(addr, fieldOffset) }

// GetColumn returns the column field.
func (m Mapper) GetColumn(addr uint64) uint64 { return m.extract(addr, fieldColumn) }

// GetBank returns the bank field.
func (m Mapper) GetBank(addr uint64) uint64 { return m.extract(addr, fieldBank) }

// GetRank returns the rank field.
func (m Mapper) GetRank(addr uint64) uint64 { return m.extract(addr, fieldRank) }

// GetChannel returns the channel field.
func (m Mapper) GetChannel(addr uint64) uint64 { return m.extract(addr, fieldChannel) }

// GetRow returns the row field.
func (m Mapper) GetRow(addr uint64) uint64 { return m.extract(addr, fieldRow) }

// SameBlock reports whether a and b agree on every field except offset,
// implemented (as the source does) by subtracting the offset out of each
// address and comparing what remains.
func (m Mapper) SameBlock(a, b uint64) bool {
	return a-m.GetOffset(a) == b-m.GetOffset(b)
}

// Channels returns the configured channel count (post-rounding).
func (m Mapper) Channels() uint64 { return uint64(1) << m.widths[fieldChannel] }

// Ranks returns the configured rank count (post-rounding).
func (m Mapper) Ranks() uint64 { return uint64(1) << m.widths[fieldRank] }

// Banks returns the configured bank count (post-rounding).
func (m Mapper) Banks() uint64 { return uint64(1) << m.widths[fieldBank] }

// Rows returns the configured row count (post-rounding).
func (m Mapper) Rows() uint64 { return uint64(1) << m.widths[fieldRow] }

// Columns returns the configured column count (post-rounding), expressed
// in prefetch-size units the same way the source's DRAM_ADDRESS_MAPPING
// stores the column field.
func (m Mapper) Columns() uint64 { return uint64(1) << m.widths[fieldColumn] }

// TotalBits returns the sum of every field's bit width.
func (m Mapper) TotalBits() uint {
	total := uint(0)
	for _, w := range m.widths {
		total += w
	}

	return total
}

// Size returns the total addressable byte count implied by the
// configuration: 1 << TotalBits.
func (m Mapper) Size() uint64 {
	return uint64(1) << m.TotalBits()
}

// BankIndex returns the flat (rank, bank) index used to index a channel's
// bank_request array: rank*banks + bank.
func (m Mapper) BankIndex(addr uint64) uint64 {
	return m.GetRank(addr)*m.Banks() + m.GetBank(addr)
}
