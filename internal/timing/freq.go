// Package timing converts device clock frequencies into the picosecond
// time unit the rest of the module works in.
package timing

import "github.com/sarchlab/dramctl/internal/signal"

// Freq is a clock frequency in hertz.
type Freq float64

// Unit multipliers for constructing a Freq, e.g. 1600*timing.MHz.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the picosecond duration of one clock cycle at this
// frequency. It panics on a zero frequency, matching the corpus's
// treatment of frequency misconfiguration as a construction-time fault.
func (f Freq) Period() signal.Time {
	if f == 0 {
		panic("timing: frequency cannot be 0")
	}

	picosecondsPerSecond := 1e12

	return signal.Time(picosecondsPerSecond / float64(f))
}
