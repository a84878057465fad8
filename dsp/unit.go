// SPDX-License-Identifier: EPL-2.0

// Package dsp holds the sample-level processing used by the effect nodes:
// the circular-history filter kernel and its per-instance state, a one-pole
// low-pass, a triangle LFO and a modulated delay flanger.
//
// Nothing in this package allocates or locks while processing a block.
package dsp

import (
	"fmt"
	"math"
	"sync/atomic"
)

const (
	// MaxChannels covers up to 7.1 surround.
	MaxChannels = 8

	// MaxHistory caps the history allocation (in samples).
	MaxHistory = 1 << 20
)

// Mix holds the kernel weights: MixIn for the delayed history sample and
// MixOut for the live input.
type Mix struct {
	In  float32
	Out float32
}

// Unit is the state of one filter instance.
//
// The history buffer and cursor belong to the audio thread. The parameter
// may be read and written from any goroutine.
type Unit struct {
	history   []float32
	cursor    uint64
	parameter atomic.Uint32
	channels  atomic.Int32
}

// NewUnit allocates a history of blockSize*maxChannels samples. The cursor
// starts at blockSize and the parameter at 1.0.
func NewUnit(blockSize, maxChannels int) (*Unit, error) {
	if blockSize <= 0 || maxChannels <= 0 {
		return nil, fmt.Errorf("%w: %d x %d", ErrInvalidBlockSize, blockSize, maxChannels)
	}
	if blockSize > MaxHistory/maxChannels {
		return nil, fmt.Errorf("%w: %d x %d", ErrHistoryTooLarge, blockSize, maxChannels)
	}

	u := &Unit{
		history: make([]float32, blockSize*maxChannels),
		cursor:  uint64(blockSize),
	}
	u.SetParameter(1)
	return u, nil
}

// Process runs the kernel over length frames of interleaved audio:
//
//	idx = (cursor*channels + c) mod capacity
//	out = mix.In*history[idx] + mix.Out*in
//	history[idx] = in
//
// The cursor advances once per frame. in and out may be the same slice.
func (u *Unit) Process(in, out []float32, length, channels int, mix Mix) error {
	if u == nil {
		return ErrEmptyHistory
	}
	capacity := uint64(len(u.history))
	if capacity == 0 {
		return ErrEmptyHistory
	}
	if channels < 1 || channels > MaxChannels {
		return fmt.Errorf("%w: %d", ErrChannelCount, channels)
	}
	if length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrShortBlock, length)
	}
	n := length * channels
	if len(in) < n || len(out) < n {
		return fmt.Errorf("%w: need %d samples, have in=%d out=%d", ErrShortBlock, n, len(in), len(out))
	}

	u.channels.Store(int32(channels))

	ch := uint64(channels)
	for s := range length {
		base := s * channels
		for c := range channels {
			idx := (u.cursor*ch + uint64(c)) % capacity
			v := in[base+c]
			out[base+c] = mix.In*u.history[idx] + mix.Out*v
			u.history[idx] = v
		}
		u.cursor++
	}

	return nil
}

// Parameter returns the adjustable parameter.
func (u *Unit) Parameter() float32 {
	return math.Float32frombits(u.parameter.Load())
}

// SetParameter stores v as is. Range checks are the caller's job.
func (u *Unit) SetParameter(v float32) {
	u.parameter.Store(math.Float32bits(v))
}

// Cursor is the running frame counter. Only meaningful on the audio thread
// or after processing has stopped.
func (u *Unit) Cursor() uint64 { return u.cursor }

// Capacity is the history length in samples.
func (u *Unit) Capacity() int { return len(u.history) }

// Channels reports the channel count of the last processed block.
func (u *Unit) Channels() int { return int(u.channels.Load()) }

// Release drops the history. A released or nil Unit rejects further blocks.
func (u *Unit) Release() {
	if u == nil {
		return
	}
	u.history = nil
}
