// SPDX-License-Identifier: EPL-2.0

//go:build !headless

package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// Oto plays through the system audio device. oto allows one context per
// process, so only one Oto may be created.
type Oto struct {
	format Format
	ctx    *oto.Context

	renderer  atomic.Pointer[Renderer]
	sampleBuf []float32 // only touched by oto's reader goroutine

	mutex  sync.Mutex // setup and control only
	player *oto.Player
}

func NewOto(f Format) (*Oto, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	op := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	return &Oto{format: f, ctx: ctx}, nil
}

func (o *Oto) Format() Format { return o.format }

func (o *Oto) Start(r Renderer) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.ctx == nil {
		return ErrClosed
	}
	if o.player != nil {
		return ErrAlreadyStarted
	}

	o.renderer.Store(&r)
	o.sampleBuf = make([]float32, 4096)
	o.player = o.ctx.NewPlayer(o)
	o.player.Play()
	return nil
}

// Read is called by oto on its own goroutine.
func (o *Oto) Read(p []byte) (int, error) {
	r := o.renderer.Load()
	if r == nil {
		clear(p)
		return len(p), nil
	}

	// whole frames only
	frameBytes := 4 * o.format.Channels
	n := len(p) / frameBytes * frameBytes
	if n == 0 {
		clear(p)
		return len(p), nil
	}

	samples := n / 4
	if len(o.sampleBuf) < samples {
		o.sampleBuf = make([]float32, samples)
	}
	buf := o.sampleBuf[:samples]
	(*r).Render(buf)

	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	clear(p[n:])
	return len(p), nil
}

func (o *Oto) Close() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.renderer.Store(nil)
	if o.player != nil {
		err := o.player.Close()
		o.player = nil
		if err != nil {
			return fmt.Errorf("closing player: %w", err)
		}
	}
	o.ctx = nil
	return nil
}
