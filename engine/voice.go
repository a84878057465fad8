// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/ik5/spatialfx/audio"
	"github.com/ik5/spatialfx/internal/sample"
)

// voice is the per-channel sample producer the mixer pulls from.
type voice interface {
	channels() int
	// read writes up to frames frames into dst, advancing by pitch frames
	// per output frame where supported. It returns the frames written.
	read(dst []float32, frames int, pitch float64) int
	// done reports that the voice will produce nothing more.
	done() bool
	close() error
}

// sampleVoice plays an in-memory buffer with a fractional read position,
// so doppler pitch can be applied.
type sampleVoice struct {
	buf  *audio.Buffer
	pos  float64
	loop bool
}

func newSampleVoice(buf *audio.Buffer, loop bool) *sampleVoice {
	return &sampleVoice{buf: buf, loop: loop}
}

func (v *sampleVoice) channels() int { return v.buf.Channels }
func (v *sampleVoice) close() error  { return nil }

func (v *sampleVoice) done() bool {
	return !v.loop && v.pos >= float64(v.buf.Frames())
}

func (v *sampleVoice) read(dst []float32, frames int, pitch float64) int {
	total := v.buf.Frames()
	if total == 0 {
		return 0
	}
	ch := v.buf.Channels
	data := v.buf.Data
	end := float64(total)

	for f := range frames {
		if v.pos >= end {
			if !v.loop {
				return f
			}
			v.pos = math.Mod(v.pos, end)
		}

		i := int(v.pos)
		frac := float32(v.pos - float64(i))
		j := i + 1
		if j >= total {
			if v.loop {
				j = 0
			} else {
				j = i
			}
		}

		for c := range ch {
			dst[f*ch+c] = sample.Linear(data[i*ch+c], data[j*ch+c], frac)
		}
		v.pos += pitch
	}
	return frames
}

// ring is a single-producer single-consumer sample queue. Update writes,
// the mixer reads.
type ring struct {
	data []float32
	head atomic.Uint64 // total samples written
	tail atomic.Uint64 // total samples read
}

func newRing(size int) *ring {
	return &ring{data: make([]float32, size)}
}

func (r *ring) available() int { return int(r.head.Load() - r.tail.Load()) }
func (r *ring) free() int      { return len(r.data) - r.available() }

func (r *ring) write(p []float32) int {
	n := min(len(p), r.free())
	head := r.head.Load()
	size := uint64(len(r.data))
	for i := range n {
		r.data[(head+uint64(i))%size] = p[i]
	}
	r.head.Store(head + uint64(n))
	return n
}

func (r *ring) read(p []float32) int {
	n := min(len(p), r.available())
	tail := r.tail.Load()
	size := uint64(len(r.data))
	for i := range n {
		p[i] = r.data[(tail+uint64(i))%size]
	}
	r.tail.Store(tail + uint64(n))
	return n
}

// maxEmptyReads bounds consecutive (0, nil) reads in one fill.
const maxEmptyReads = 16

var errEmptyStream = errors.New("stream produced no audio")

// streamVoice decodes a source into a ring buffer ahead of the mixer.
// fill and close run on the controlling goroutine, read on the mixer.
type streamVoice struct {
	open     func() (audio.Source, error)
	src      audio.Source
	nch      int
	loop     bool
	ring     *ring
	scratch  []float32
	produced int // samples since the current source was opened

	exhausted atomic.Bool
}

func newStreamVoice(open func() (audio.Source, error), frames int, loop bool) (*streamVoice, error) {
	src, err := open()
	if err != nil {
		return nil, err
	}
	channels := src.Channels()
	return &streamVoice{
		open:    open,
		src:     src,
		nch:     channels,
		loop:    loop,
		ring:    newRing(frames * channels),
		scratch: make([]float32, 1024*channels),
	}, nil
}

func (v *streamVoice) channels() int { return v.nch }

func (v *streamVoice) done() bool {
	return v.exhausted.Load() && v.ring.available() == 0
}

// read ignores pitch; streams play at their natural rate.
func (v *streamVoice) read(dst []float32, frames int, _ float64) int {
	n := v.ring.read(dst[:frames*v.nch])
	return n / v.nch
}

// fill tops the ring up, reopening the source at the end when looping.
func (v *streamVoice) fill() error {
	empty := 0
	for !v.exhausted.Load() {
		room := v.ring.free()
		room -= room % v.nch
		room = min(room, len(v.scratch))
		if room == 0 {
			return nil
		}

		n, err := v.src.ReadSamples(v.scratch[:room])
		v.ring.write(v.scratch[:n])
		v.produced += n

		switch {
		case errors.Is(err, io.EOF):
			if !v.loop {
				v.exhausted.Store(true)
				return nil
			}
			if v.produced == 0 {
				v.exhausted.Store(true)
				return errEmptyStream
			}
			if err := v.restart(); err != nil {
				v.exhausted.Store(true)
				return err
			}
		case err != nil:
			v.exhausted.Store(true)
			return fmt.Errorf("decoding stream: %w", err)
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				return nil
			}
		default:
			empty = 0
		}
	}
	return nil
}

func (v *streamVoice) restart() error {
	if err := v.src.Close(); err != nil {
		return fmt.Errorf("closing stream for loop: %w", err)
	}
	src, err := v.open()
	if err != nil {
		v.src = nil
		return err
	}
	v.src = src
	v.produced = 0
	return nil
}

func (v *streamVoice) close() error {
	v.exhausted.Store(true)
	if v.src == nil {
		return nil
	}
	src := v.src
	v.src = nil
	if err := src.Close(); err != nil {
		return fmt.Errorf("closing stream: %w", err)
	}
	return nil
}
