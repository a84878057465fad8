// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/spatialfx/internal/sample"
)

// maxEmptyReads bounds how many (0, nil) reads are tolerated from a source
// before it is treated as exhausted.
const maxEmptyReads = 16

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// A one-pole low-pass is applied to source frames when downsampling.
type Resampler struct {
	src      Source
	channels int
	dstRate  int
	step     float64 // source frames per output frame

	// window[0..3] hold frames t-1, t, t+1, t+2; ahead counts how many of
	// window[1..3] are real frames rather than end-of-stream padding.
	window [4][]float32
	ahead  int
	primed bool
	frac   float64

	in     []float32
	inPos  int
	inLen  int
	eof    bool
	srcErr error

	lowpass []float32
	alpha   float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	bufSize := src.BufSize()
	if bufSize < channels {
		bufSize = 4096
	}
	bufSize -= bufSize % channels

	r := &Resampler{
		src:      src,
		channels: channels,
		dstRate:  dstRate,
		step:     step,
		in:       make([]float32, bufSize),
		lowpass:  make([]float32, channels),
	}

	if step > 1.0 {
		r.alpha = 0.5
	}

	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampler source: %w", err)
	}
	return nil
}

// fill refills the input chunk. It returns false once the source is exhausted.
func (r *Resampler) fill() bool {
	for range maxEmptyReads {
		if r.eof {
			return false
		}

		n, err := r.src.ReadSamples(r.in)
		r.inLen = n - n%r.channels
		r.inPos = 0

		if err != nil {
			r.eof = true
			if !errors.Is(err, io.EOF) {
				r.srcErr = err
			}
		}

		if r.inLen > 0 {
			return true
		}
	}

	r.eof = true
	return false
}

// readFrame copies the next source frame into dst, unfiltered.
func (r *Resampler) readFrame(dst []float32) bool {
	if r.inPos >= r.inLen && !r.fill() {
		return false
	}

	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels
	return true
}

// nextFrame reads the next source frame into dst through the anti-alias filter.
func (r *Resampler) nextFrame(dst []float32) bool {
	if !r.readFrame(dst) {
		return false
	}

	if r.alpha > 0 {
		for c := range dst {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.lowpass[c]
			r.lowpass[c] = dst[c]
		}
	}

	return true
}

func (r *Resampler) prime() bool {
	r.primed = true
	if !r.readFrame(r.window[1]) {
		return false
	}

	// The filter starts from the raw first frame, so a constant input stays constant.
	copy(r.lowpass, r.window[1])
	copy(r.window[0], r.window[1])
	r.ahead = 1

	for i := 2; i < len(r.window); i++ {
		if r.nextFrame(r.window[i]) {
			r.ahead++
		} else {
			copy(r.window[i], r.window[i-1])
		}
	}

	return true
}

func (r *Resampler) advance() {
	first := r.window[0]
	r.window[0], r.window[1], r.window[2] = r.window[1], r.window[2], r.window[3]
	r.window[3] = first

	if !r.nextFrame(r.window[3]) {
		copy(r.window[3], r.window[2])
		r.ahead--
	}
}

func (r *Resampler) finish(written int) (int, error) {
	if r.srcErr != nil {
		return written, fmt.Errorf("resampler source: %w", r.srcErr)
	}
	return written, io.EOF
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed && !r.prime() {
		return r.finish(0)
	}

	framesNeeded := len(dst) / r.channels
	written := 0

	for written < framesNeeded {
		for r.frac >= 1.0 {
			r.frac -= 1.0
			r.advance()
		}

		if r.ahead <= 0 {
			return r.finish(written * r.channels)
		}

		x := float32(r.frac)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = sample.Cubic(r.window[0][c], r.window[1][c], r.window[2][c], r.window[3][c], x)
		}

		written++
		r.frac += r.step
	}

	return written * r.channels, nil
}
