// SPDX-License-Identifier: EPL-2.0

// Package sample holds the scalar conversions shared by decoders, the mixer
// and the output devices. Samples are float32 in [-1, 1].
package sample

const (
	int16Scale = 32768.0
	int16Max   = 32767.0
)

// Clamp limits x to [-1, 1].
func Clamp(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// ToInt16 clamps x and scales it to 16-bit PCM.
func ToInt16(x float32) int16 {
	return int16(Clamp(x) * int16Max)
}

// FromInt16 converts 16-bit PCM to a float sample.
func FromInt16(v int16) float32 {
	return float32(v) / int16Scale
}

// FromInt converts a PCM integer of the given bit depth to a float sample.
// Unknown depths are treated as 16-bit.
func FromInt(v int, bitDepth int) float32 {
	var scale float32
	switch bitDepth {
	case 8:
		scale = 128.0
	case 24:
		scale = 8388608.0
	case 32:
		scale = 2147483648.0
	default:
		scale = int16Scale
	}
	return float32(v) / scale
}

// Cubic performs Catmull-Rom interpolation between y1 and y2.
// x is the fractional position, 0 <= x <= 1.
func Cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*x+a1)*x+a2)*x + y1
}

// Linear interpolates between a and b.
func Linear(a, b, x float32) float32 {
	return a + (b-a)*x
}
