// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ik5/spatialfx/dsp"
)

// floatValue is a float32 that can be shared with the audio goroutine.
type floatValue struct {
	bits atomic.Uint32
}

func (v *floatValue) Load() float32   { return math.Float32frombits(v.bits.Load()) }
func (v *floatValue) Store(f float32) { v.bits.Store(math.Float32bits(f)) }

// peakMeter records the absolute peak of each channel in the last block.
type peakMeter struct {
	peaks    [dsp.MaxChannels]floatValue
	channels atomic.Int32
}

func (m *peakMeter) update(block []float32, length, channels int) {
	channels = min(channels, dsp.MaxChannels)
	var peaks [dsp.MaxChannels]float32
	for s := range length {
		base := s * channels
		for c := range channels {
			v := block[base+c]
			if v < 0 {
				v = -v
			}
			peaks[c] = max(peaks[c], v)
		}
	}
	for c := range channels {
		m.peaks[c].Store(peaks[c])
	}
	m.channels.Store(int32(channels))
}

// bytes encodes the peaks as little-endian float32s, one per channel.
func (m *peakMeter) bytes() []byte {
	n := int(m.channels.Load())
	out := make([]byte, 4*n)
	for c := range n {
		binary.LittleEndian.PutUint32(out[4*c:], math.Float32bits(m.peaks[c].Load()))
	}
	return out
}

// DecodePeaks turns the bytes of a "peaks" data parameter back into levels.
func DecodePeaks(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}
