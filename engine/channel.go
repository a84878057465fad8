// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/ik5/spatialfx/audio"
	"github.com/ik5/spatialfx/spatial"
)

// Channel is one playing instance of a Sound. A channel that has been
// stopped, or whose sound has ended, is no longer valid.
type Channel struct {
	id    uuid.UUID
	sys   *System
	sound *Sound
	voice voice

	volume   float32
	paused   bool
	position spatial.Vector
	velocity spatial.Vector

	// dsps[0] is the head of the chain, nearest the output. Audio flows
	// from the last entry towards it.
	dsps []*DSP

	stopped bool
}

// PlaySound starts snd on a new channel.
func (s *System) PlaySound(snd *Sound, paused bool) (*Channel, error) {
	if snd == nil {
		return nil, ErrInvalidHandle
	}

	v, err := s.newVoice(snd)
	if err != nil {
		return nil, err
	}

	ch := &Channel{
		id:     uuid.New(),
		sys:    s,
		sound:  snd,
		voice:  v,
		volume: 1,
		paused: paused,
	}

	s.mu.Lock()
	switch {
	case !s.initialized:
		err = ErrNotInitialized
	case snd.released:
		err = ErrInvalidHandle
	case len(s.channels) >= s.cfg.MaxChannels:
		err = ErrNoFreeChannel
	default:
		s.channels = append(s.channels, ch)
	}
	s.mu.Unlock()

	if err != nil {
		_ = v.close()
		return nil, err
	}

	s.log.Debug("channel started", "channel", ch.id, "sound", snd.id, "paused", paused)
	return ch, nil
}

func (s *System) newVoice(snd *Sound) (voice, error) {
	s.mu.Lock()
	released := snd.released
	rate := s.format.SampleRate
	blockSize := s.cfg.BlockSize
	s.mu.Unlock()

	if released {
		return nil, ErrInvalidHandle
	}
	if !snd.mode.Is(ModeStream) {
		return newSampleVoice(snd.buf, snd.mode.Is(ModeLoop)), nil
	}

	open := func() (audio.Source, error) {
		src, err := s.opener.Open(snd.path)
		if err != nil {
			return nil, fmt.Errorf("opening stream %s: %w", snd.path, err)
		}
		var out audio.Source = audio.NewResampler(src, rate)
		if snd.mode.Is(Mode3D) {
			out = audio.NewMonoMixer(out)
		}
		return out, nil
	}

	frames := max(int(s.cfg.StreamBuffer.Seconds()*float64(rate)), 2*blockSize)
	sv, err := newStreamVoice(open, frames, snd.mode.Is(ModeLoop))
	if err != nil {
		return nil, err
	}
	if err := sv.fill(); err != nil {
		_ = sv.close()
		return nil, err
	}
	return sv, nil
}

func (c *Channel) ID() uuid.UUID { return c.id }

// Sound returns what the channel plays.
func (c *Channel) Sound() *Sound { return c.sound }

// locked runs fn with the system lock held if the channel is still valid.
func (c *Channel) locked(fn func() error) error {
	c.sys.mu.Lock()
	defer c.sys.mu.Unlock()
	if c.stopped {
		return ErrInvalidHandle
	}
	return fn()
}

// Set3DAttributes positions a 3D channel.
func (c *Channel) Set3DAttributes(pos, vel spatial.Vector) error {
	return c.locked(func() error {
		if !c.sound.mode.Is(Mode3D) {
			return ErrNeeds3D
		}
		c.position, c.velocity = pos, vel
		return nil
	})
}

func (c *Channel) Get3DAttributes() (pos, vel spatial.Vector, err error) {
	err = c.locked(func() error {
		if !c.sound.mode.Is(Mode3D) {
			return ErrNeeds3D
		}
		pos, vel = c.position, c.velocity
		return nil
	})
	return pos, vel, err
}

// SetVolume sets a linear gain. Negative values are treated as zero.
func (c *Channel) SetVolume(v float32) error {
	return c.locked(func() error {
		c.volume = max(0, v)
		return nil
	})
}

func (c *Channel) Volume() (v float32, err error) {
	err = c.locked(func() error {
		v = c.volume
		return nil
	})
	return v, err
}

func (c *Channel) SetPaused(paused bool) error {
	return c.locked(func() error {
		c.paused = paused
		return nil
	})
}

func (c *Channel) Paused() (p bool, err error) {
	err = c.locked(func() error {
		p = c.paused
		return nil
	})
	return p, err
}

// IsPlaying reports false once the channel has stopped or ended.
func (c *Channel) IsPlaying() bool {
	c.sys.mu.Lock()
	defer c.sys.mu.Unlock()
	return !c.stopped
}

// AddDSP inserts d at index (clamped to the chain) on this channel,
// moving it from any other channel first.
func (c *Channel) AddDSP(index int, d *DSP) error {
	if d == nil {
		return ErrInvalidHandle
	}
	return c.locked(func() error {
		if d.released.Load() {
			return ErrInvalidHandle
		}
		if d.channel != nil {
			d.channel.removeDSPLocked(d)
		}
		index = max(0, min(index, len(c.dsps)))
		c.dsps = slices.Insert(c.dsps, index, d)
		d.channel = c
		return nil
	})
}

// RemoveDSP detaches d. It is not an error if d was not attached here.
func (c *Channel) RemoveDSP(d *DSP) error {
	return c.locked(func() error {
		if d != nil && d.channel == c {
			c.removeDSPLocked(d)
		}
		return nil
	})
}

// DSPs returns the chain, head first.
func (c *Channel) DSPs() ([]*DSP, error) {
	var out []*DSP
	err := c.locked(func() error {
		out = slices.Clone(c.dsps)
		return nil
	})
	return out, err
}

func (c *Channel) removeDSPLocked(d *DSP) {
	c.dsps = slices.DeleteFunc(c.dsps, func(x *DSP) bool { return x == d })
	d.channel = nil
}

// Stop ends playback and invalidates the channel.
func (c *Channel) Stop() error {
	s := c.sys

	s.mu.Lock()
	if c.stopped {
		s.mu.Unlock()
		return ErrInvalidHandle
	}
	s.channels = slices.DeleteFunc(s.channels, func(x *Channel) bool { return x == c })
	v := c.detachLocked()
	s.mu.Unlock()

	s.log.Debug("channel stopped", "channel", c.id)
	return v.close()
}

// detachLocked marks the channel stopped and unhooks its DSPs. The caller
// removes it from the system list and closes the returned voice outside
// the lock.
func (c *Channel) detachLocked() voice {
	c.stopped = true
	for _, d := range c.dsps {
		d.channel = nil
	}
	c.dsps = nil
	return c.voice
}
