package dramctl

import (
	"fmt"

	"github.com/sarchlab/dramctl/internal/addrmap"
	"github.com/sarchlab/dramctl/internal/hooking"
	"github.com/sarchlab/dramctl/internal/modeling"
	"github.com/sarchlab/dramctl/internal/org"
	"github.com/sarchlab/dramctl/internal/signal"
	"github.com/sarchlab/dramctl/internal/timing"
)

// Builder builds a Comp wrapping one Controller. Timing parameters are
// given in clock cycles, the way the original controller's config file
// does, and are converted to picoseconds at Build time using freq.
type Builder struct {
	freq  timing.Freq
	hooks []hooking.Hook

	channelWidthBytes int
	prefetchSize      int
	blockSizeBytes    int

	numChannel int
	numRank    int
	numBank    int
	numRow     int
	numColumn  int

	rqCapacity int
	wqCapacity int

	tRP        int
	tRCD       int
	tCAS       int
	turnaround int
}

// MakeBuilder creates a builder with defaults matching a DDR4-2400
// single-channel configuration.
func MakeBuilder() Builder {
	return Builder{
		freq:              1200 * timing.MHz,
		channelWidthBytes: 8,
		prefetchSize:      8,
		blockSizeBytes:    64,
		numChannel:        1,
		numRank:           1,
		numBank:           16,
		numRow:            65536,
		numColumn:         1024,
		rqCapacity:        64,
		wqCapacity:        64,
		tRP:               13,
		tRCD:              13,
		tCAS:              13,
		turnaround:        5,
	}
}

// WithFreq sets the channel clock frequency.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.freq = freq
	return b
}

// WithAdditionalHooks registers h on the Comp and on every channel it
// builds.
func (b Builder) WithAdditionalHooks(h hooking.Hook) Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// WithChannelWidth sets the per-channel data bus width in bytes.
func (b Builder) WithChannelWidth(bytes int) Builder {
	b.channelWidthBytes = bytes
	return b
}

// WithPrefetchSize sets the number of consecutive bus transfers making up
// one access unit.
func (b Builder) WithPrefetchSize(n int) Builder {
	b.prefetchSize = n
	return b
}

// WithBlockSize sets the cache block size in bytes that addresses are
// decoded against.
func (b Builder) WithBlockSize(bytes int) Builder {
	b.blockSizeBytes = bytes
	return b
}

// WithNumChannel sets the number of channels the controller manages.
func (b Builder) WithNumChannel(n int) Builder {
	b.numChannel = n
	return b
}

// WithNumRank sets the number of ranks per channel.
func (b Builder) WithNumRank(n int) Builder {
	b.numRank = n
	return b
}

// WithNumBank sets the number of banks per rank.
func (b Builder) WithNumBank(n int) Builder {
	b.numBank = n
	return b
}

// WithNumRow sets the number of rows per bank.
func (b Builder) WithNumRow(n int) Builder {
	b.numRow = n
	return b
}

// WithNumColumn sets the number of columns per row.
func (b Builder) WithNumColumn(n int) Builder {
	b.numColumn = n
	return b
}

// WithRQCapacity sets the per-channel read queue capacity.
func (b Builder) WithRQCapacity(n int) Builder {
	b.rqCapacity = n
	return b
}

// WithWQCapacity sets the per-channel write queue capacity.
func (b Builder) WithWQCapacity(n int) Builder {
	b.wqCapacity = n
	return b
}

// WithTRP sets the row precharge latency in cycles.
func (b Builder) WithTRP(cycles int) Builder {
	b.tRP = cycles
	return b
}

// WithTRCD sets the row-to-column delay in cycles.
func (b Builder) WithTRCD(cycles int) Builder {
	b.tRCD = cycles
	return b
}

// WithTCAS sets the column access strobe latency in cycles.
func (b Builder) WithTCAS(cycles int) Builder {
	b.tCAS = cycles
	return b
}

// WithTurnaround sets the read/write bus turnaround penalty in cycles.
func (b Builder) WithTurnaround(cycles int) Builder {
	b.turnaround = cycles
	return b
}

// Build constructs a named Comp. It panics on a configuration that cannot
// address any DRAM (mirroring the original controller's own
// construction-time validation), never on data-path faults.
func (b Builder) Build(name string) *Comp {
	period := b.freq.Period()

	mapper, err := addrmap.New(
		b.channelWidthBytes, b.prefetchSize,
		b.numChannel, b.numBank, b.numColumn, b.numRank, b.numRow,
		b.blockSizeBytes,
	)
	if err != nil {
		panic(fmt.Sprintf("dramctl: cannot build address map: %v", err))
	}

	channels := make([]*org.Channel, b.numChannel)
	for i := range channels {
		ch := org.New(org.Config{
			Name:              fmt.Sprintf("%s.Channel[%d]", name, i),
			ClockPeriod:       period,
			TRP:               period * signal.Time(b.tRP),
			TRCD:              period * signal.Time(b.tRCD),
			TCAS:              period * signal.Time(b.tCAS),
			Turnaround:        period * signal.Time(b.turnaround),
			ChannelWidthBytes: b.channelWidthBytes,
			PrefetchSize:      b.prefetchSize,
			RQCapacity:        b.rqCapacity,
			WQCapacity:        b.wqCapacity,
			AddrMapper:        mapper,
		})

		for _, h := range b.hooks {
			ch.AcceptHook(h)
		}

		channels[i] = ch
	}

	ctl := newController(mapper, channels)

	comp := &Comp{
		name: name,
		ctl:  ctl,
		reads: &portQueue{
			isWrite: false,
		},
		writes: &portQueue{
			isWrite: true,
		},
	}
	comp.reads.comp = comp
	comp.writes.comp = comp

	for _, h := range b.hooks {
		comp.AcceptHook(h)
	}

	comp.topPort = modeling.NewFIFOPort(name+".Top", 1024, 1024)

	return comp
}
