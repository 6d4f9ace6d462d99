package ws2812

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// The pulse shape was tuned by instruction counting on a 16MHz core: after
// the line rises it is held 2 cycles before the bit level is applied, then 5
// more cycles before it is forced low. Other clocks scale those counts to
// keep the same absolute pulse widths.
//
// Any port to a new target must verify the resulting widths against the
// controller's datasheet tolerance (±150ns) on a scope; one spin iteration
// is not one cycle on every core, and the pin writes themselves add time.
const (
	refClock     physic.Frequency = 16 * physic.MegaHertz
	refShortHold                  = 2
	refLongHold                   = 5

	// latchHold is the minimum low period the chain interprets as end of
	// frame. The datasheet asks for 50µs.
	latchHold = 50 * time.Microsecond
)

// cyclesAt scales a reference-clock cycle count to the configured clock,
// never rounding a nonzero hold down to nothing.
func cyclesAt(refCycles uint32, clock physic.Frequency) uint32 {
	n := uint32(uint64(refCycles) * uint64(clock) / uint64(refClock))
	if n == 0 && refCycles > 0 {
		n = 1
	}
	return n
}

// spin busy-waits n iterations. Kept out of line so the loop survives as an
// actual delay at every optimization level.
//
//go:noinline
func spin(n uint32) {
	for ; n > 0; n-- {
	}
}
