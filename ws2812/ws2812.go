// Package ws2812 drives a line of WS2812/WS2812B ("NeoPixel") LEDs over a
// single GPIO pin by bit-banging the self-clocking one-wire protocol.
//
// The device holds a fixed-size frame buffer, one RGB triplet per LED. Writes
// to the buffer are decoupled from the line; nothing is visible until Flush
// serializes the whole buffer as a reset pulse followed by 24 precisely timed
// bits per LED. Pulse widths are produced by busy-waiting a cycle count
// derived from the configured core clock, so the transmission path must not
// be preempted mid-channel; see InterruptGuard.
//
// Dev implements display.Drawer and can be swapped for an nrzled-over-SPI or
// console drawer in animation code.
//
// Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/WS2812B.pdf
package ws2812

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Order is the wire order in which the three intensity bytes are transmitted
// per LED. It reflects the controller variant soldered on the strip, not a
// per-frame choice.
type Order int

const (
	// OrderGRB is the common WS2812/WS2812B byte order.
	OrderGRB Order = iota
	// OrderRGB is used by some WS2811-era controllers.
	OrderRGB
)

func (o Order) String() string {
	if o == OrderRGB {
		return "RGB"
	}
	return "GRB"
}

// ParseOrder converts a channel order name such as "GRB" to an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "GRB", "grb":
		return OrderGRB, nil
	case "RGB", "rgb":
		return OrderRGB, nil
	}
	return OrderGRB, fmt.Errorf("ws2812: unknown channel order %q", s)
}

// InterruptGuard suspends preemption around a timing-critical pulse train.
//
// The line protocol is self-timed by instruction execution, so any work
// stolen from the CPU mid-channel stretches a pulse past the receiver's
// tolerance and corrupts the byte. Disable is called before each 8-bit
// channel is clocked out and Enable once the channel completes, bounding
// jitter to the gaps between channels.
//
// The default guard is a no-op, which is all a hosted test environment can
// offer. On bare metal supply a guard that masks interrupts.
type InterruptGuard interface {
	Disable()
	Enable()
}

type nopGuard struct{}

func (nopGuard) Disable() {}
func (nopGuard) Enable()  {}

// Opts holds the fixed configuration of an LED line.
type Opts struct {
	// NumPixels is the number of LEDs on the line. Required.
	NumPixels int
	// Order is the per-LED byte order on the wire. Defaults to OrderGRB.
	Order Order
	// Clock is the core clock the busy-wait cycle counts are derived from.
	// Defaults to the 16MHz reference the pulse timings were tuned on.
	Clock physic.Frequency
	// Guard brackets each 8-bit channel transmission. Defaults to a no-op.
	Guard InterruptGuard
}

// Dev is an open handle to a WS2812 LED line on a single output pin.
//
// The configuration is fixed for the life of the handle. Dev is not safe for
// concurrent use; in particular the buffer must not be mutated while Flush
// runs.
type Dev struct {
	pin       gpio.PinOut
	order     Order
	guard     InterruptGuard
	shortHold uint32
	longHold  uint32
	buf       []RGB
}

// New returns a device driving opts.NumPixels LEDs through pin p.
func New(p gpio.PinOut, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, errors.New("ws2812: pin is required")
	}
	if opts == nil {
		return nil, errors.New("ws2812: opts is required")
	}
	if opts.NumPixels <= 0 {
		return nil, fmt.Errorf("ws2812: invalid LED count: %d", opts.NumPixels)
	}
	clock := opts.Clock
	if clock == 0 {
		clock = refClock
	}
	guard := opts.Guard
	if guard == nil {
		guard = nopGuard{}
	}
	return &Dev{
		pin:       p,
		order:     opts.Order,
		guard:     guard,
		shortHold: cyclesAt(refShortHold, clock),
		longHold:  cyclesAt(refLongHold, clock),
		buf:       make([]RGB, opts.NumPixels),
	}, nil
}

// Setup configures the output pin and parks the line low. Call once before
// the first Flush.
func (d *Dev) Setup() error {
	// Out both sets the pin direction and the level.
	return d.pin.Out(gpio.Low)
}

// Len returns the number of LEDs on the line.
func (d *Dev) Len() int {
	return len(d.buf)
}

// SetColor stores c at position pos in the frame buffer. Out-of-range
// positions are silently ignored.
func (d *Dev) SetColor(pos int, c RGB) {
	if pos < 0 || pos >= len(d.buf) {
		return
	}
	d.buf[pos] = c
}

// SetRGB stores the triplet (r, g, b) at position pos in the frame buffer.
// Out-of-range positions are silently ignored.
func (d *Dev) SetRGB(pos int, r, g, b uint8) {
	d.SetColor(pos, RGB{R: r, G: g, B: b})
}

// SetHSV converts an HSV color to RGB and stores it at position pos. See
// HSVToRGB for the hue encoding.
func (d *Dev) SetHSV(pos int, h uint16, s, v uint8) {
	d.SetColor(pos, HSVToRGB(h, s, v))
}

// At returns the buffered triplet at position pos, or the zero RGB if pos is
// out of range.
func (d *Dev) At(pos int) RGB {
	if pos < 0 || pos >= len(d.buf) {
		return RGB{}
	}
	return d.buf[pos]
}

// Flush serializes the whole frame buffer onto the line: a reset pulse, then
// 24 bits per LED in buffer order, each channel byte MSB first in the
// configured channel order.
//
// There is no return value. Transmission is fire-and-forget; correctness
// rests on timing fidelity, which is a platform guarantee rather than a
// runtime-checked one. If the gap between two channels ever exceeds the
// receiver's reset threshold the frame is garbage and must be re-flushed in
// full; nothing at this layer detects that.
func (d *Dev) Flush() {
	_ = d.pin.Out(gpio.Low)
	// Hold the line low so the chain latches and treats what follows as a
	// new frame.
	time.Sleep(latchHold)
	for i := range d.buf {
		c := d.buf[i]
		if d.order == OrderRGB {
			d.sendByte(c.R)
			d.sendByte(c.G)
			d.sendByte(c.B)
		} else {
			d.sendByte(c.G)
			d.sendByte(c.R)
			d.sendByte(c.B)
		}
	}
}

// Halt blanks the strip. It implements conn.Resource.
func (d *Dev) Halt() error {
	for i := range d.buf {
		d.buf[i] = RGB{}
	}
	d.Flush()
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ws2812{%s, %d}", d.pin, len(d.buf))
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer. The line is a 1 pixel high strip.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, len(d.buf), 1)
}

// Draw copies a row of src into the frame buffer and flushes it to the line.
// It implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	for x := 0; x < r.Dx(); x++ {
		rr, gg, bb, _ := src.At(sp.X+x, sp.Y).RGBA()
		d.SetRGB(r.Min.X+x, uint8(rr>>8), uint8(gg>>8), uint8(bb>>8))
	}
	d.Flush()
	return nil
}

// sendByte clocks out one channel byte MSB first with preemption suspended
// for the duration of the byte.
func (d *Dev) sendByte(b uint8) {
	d.guard.Disable()
	defer d.guard.Enable()
	for mask := uint8(0x80); mask != 0; mask >>= 1 {
		d.sendBit(b&mask != 0)
	}
}

// sendBit emits one self-clocked bit: the line always rises, stays high for
// the short hold, drops to the bit level, and is forced low after the long
// hold. A 1 is therefore a long high pulse, a 0 a short one; the period is
// identical either way.
func (d *Dev) sendBit(b bool) {
	_ = d.pin.Out(gpio.High)
	spin(d.shortHold)
	_ = d.pin.Out(gpio.Level(b))
	spin(d.longHold)
	_ = d.pin.Out(gpio.Low)
}

var _ display.Drawer = &Dev{}
