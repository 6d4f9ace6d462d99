package ws2812

import "image/color"

// RGB is one LED's color: three independent 8-bit intensities.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// ToNRGBA returns the triplet as an opaque image/color value.
func (c RGB) ToNRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// HSVToRGB converts an HSV color to RGB in pure integer arithmetic.
//
// The hue wheel is encoded in 1536 steps, 6 sextants of 256 steps each, so a
// full ramp within a sextant maps 1:1 onto the 8-bit channel range with no
// divisions. h wraps modulo 1536; s and v are the usual 8-bit saturation and
// brightness.
//
// The fixed-point evaluation, including its rounding corrections, follows
// http://www.vagrearg.org/content/hsvrgb exactly: results are part of the
// contract, not an approximation.
func HSVToRGB(h uint16, s, v uint8) RGB {
	if v == 0 {
		return RGB{}
	}
	if s == 0 {
		return RGB{R: v, G: v, B: v}
	}

	sextant := (h % 1536) >> 8
	if sextant > 5 {
		// Unreachable for any uint16 hue, kept as a guard against hue
		// encoding changes.
		sextant = 5
	}

	// Bottom level, shared by both ends of the sextant: v*(1-s) scaled to
	// 8 bits, with +1 and high-byte feedback as rounding corrections.
	ww := uint16(v)*uint16(255-s) + 1
	ww += ww >> 8
	c := uint8(ww >> 8)

	// Position within the sextant. Even sextants ramp the moving channel
	// up, odd ones down, so the slope term uses the opposite fraction.
	hf := uint32(h & 0xff)
	var d uint32
	if sextant&1 == 0 {
		d = uint32(v) * ((255 << 8) - uint32(s)*(256-hf))
	} else {
		d = uint32(v) * ((255 << 8) - uint32(s)*hf)
	}
	d += d >> 8
	d += uint32(v)
	ramp := uint8(d >> 16)

	switch sextant {
	case 0:
		return RGB{R: v, G: ramp, B: c}
	case 1:
		return RGB{R: ramp, G: v, B: c}
	case 2:
		return RGB{R: c, G: v, B: ramp}
	case 3:
		return RGB{R: c, G: ramp, B: v}
	case 4:
		return RGB{R: ramp, G: c, B: v}
	default:
		return RGB{R: v, G: c, B: ramp}
	}
}
