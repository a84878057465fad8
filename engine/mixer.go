// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"math"
	"slices"

	"github.com/ik5/spatialfx/dsp"
	"github.com/ik5/spatialfx/internal/sample"
	"github.com/ik5/spatialfx/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// mixer holds the render buffers. Everything here belongs to whichever
// goroutine is inside Render.
type mixer struct {
	blockSize int
	outCh     int

	bus      []float32 // one mixed block
	voiceIn  []float32 // a voice's frames in its own layout
	voiceOut []float32 // a voice's frames at the output layout
	pending  []float32 // mixed but not yet handed out
	offset   int
	world    []spatial.Vector
}

func newMixer(blockSize, outCh int) mixer {
	n := blockSize * outCh
	return mixer{
		blockSize: blockSize,
		outCh:     outCh,
		bus:       make([]float32, n),
		voiceIn:   make([]float32, blockSize*dsp.MaxChannels),
		voiceOut:  make([]float32, n),
		pending:   make([]float32, n),
		offset:    n,
	}
}

// Render implements output.Renderer. Audio is produced in whole blocks;
// any part of a block dst has no room for is kept for the next call.
func (s *System) Render(dst []float32) {
	for len(dst) > 0 {
		s.mu.Lock()
		if !s.initialized {
			s.mu.Unlock()
			clear(dst)
			return
		}
		m := &s.mixer
		if m.offset >= len(m.pending) {
			s.mixBlockLocked()
			m.offset = 0
		}
		n := copy(dst, m.pending[m.offset:])
		m.offset += n
		s.mu.Unlock()

		dst = dst[n:]
	}
}

// mixBlockLocked renders one block of every live channel into pending.
func (s *System) mixBlockLocked() {
	m := &s.mixer
	frames := m.blockSize
	outCh := m.outCh
	clear(m.bus)

	ended := false
	for _, ch := range s.channels {
		if ch.paused {
			continue
		}

		inCh := ch.voice.channels()
		if inCh <= 0 || inCh > dsp.MaxChannels {
			continue
		}
		in := m.voiceIn[:frames*inCh]
		out := m.voiceOut

		is3D := ch.sound.mode.Is(Mode3D)
		pitch := 1.0
		if is3D {
			pitch = spatial.Doppler(s.listener, spatial.SourcePose{Position: ch.position, Velocity: ch.velocity}, s.settings)
		}

		n := ch.voice.read(in, frames, pitch)
		clear(in[n*inCh:])

		if is3D {
			gain, left, right := s.gains3DLocked(ch)
			pan(in, out, outCh, frames, float32(gain*left), float32(gain*right))
		} else {
			remap(in, inCh, out, outCh, frames, ch.volume)
		}

		for i := len(ch.dsps) - 1; i >= 0; i-- {
			ch.dsps[i].process(out, frames, outCh)
		}

		for i, v := range out {
			m.bus[i] += v
		}

		if ch.voice.done() {
			ended = true
		}
	}

	if ended {
		s.channels = slices.DeleteFunc(s.channels, func(ch *Channel) bool {
			if !ch.voice.done() {
				return false
			}
			if _, ok := ch.voice.(*streamVoice); ok {
				s.reap = append(s.reap, ch.voice)
			}
			ch.detachLocked()
			return true
		})
	}

	for i, v := range m.bus {
		m.pending[i] = sample.Clamp(v)
	}
}

// gains3DLocked returns the distance and occlusion gain plus the pan pair.
func (s *System) gains3DLocked(ch *Channel) (gain, left, right float64) {
	listener := s.listener
	dist := r3.Norm(r3.Sub(ch.position, listener.Position))

	gain = float64(ch.volume) * spatial.Attenuation(dist, ch.sound.minDist, ch.sound.maxDist, s.settings.RolloffScale)
	gain *= s.directGainLocked(listener.Position, ch.position)

	left, right = spatial.Pan(listener, ch.position)
	if s.mixer.outCh == 1 {
		// Mono output: undo the equal-power split.
		left, right = math.Sqrt2/2, math.Sqrt2/2
	}
	return gain, left, right
}

// pan spreads a mono block to the first two output channels.
func pan(in, out []float32, outCh, frames int, left, right float32) {
	for f := range frames {
		v := in[f]
		o := out[f*outCh : (f+1)*outCh]
		switch outCh {
		case 1:
			o[0] = v * (left + right) / math.Sqrt2
		default:
			o[0] = v * left
			o[1] = v * right
			clear(o[2:])
		}
	}
}

// remap converts a block between channel layouts, applying gain.
// Mono is copied to every output; otherwise channels map one to one and
// extra output channels are silent. A mono output averages the input.
func remap(in []float32, inCh int, out []float32, outCh, frames int, gain float32) {
	for f := range frames {
		src := in[f*inCh : (f+1)*inCh]
		dst := out[f*outCh : (f+1)*outCh]

		switch {
		case inCh == 1:
			for c := range dst {
				dst[c] = src[0] * gain
			}
		case outCh == 1:
			var sum float32
			for _, v := range src {
				sum += v
			}
			dst[0] = sum / float32(inCh) * gain
		default:
			for c := range dst {
				if c < inCh {
					dst[c] = src[c] * gain
				} else {
					dst[c] = 0
				}
			}
		}
	}
}
