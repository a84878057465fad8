// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ik5/spatialfx/effect"
)

// DSPType names the built-in effects.
type DSPType int

const (
	DSPTypeLowpass DSPType = iota
	DSPTypeFlange
)

func (t DSPType) descriptor() (effect.Descriptor, bool) {
	switch t {
	case DSPTypeLowpass:
		return effect.LowpassDescriptor(), true
	case DSPTypeFlange:
		return effect.FlangeDescriptor(), true
	default:
		return effect.Descriptor{}, false
	}
}

// DSP is a created effect node. It sits on at most one channel.
type DSP struct {
	id   uuid.UUID
	sys  *System
	desc effect.Descriptor
	node effect.Node

	bypass   atomic.Bool
	released atomic.Bool
	failures atomic.Uint64

	channel *Channel // guarded by sys.mu
}

// RegisterDSP makes desc available to CreateDSPByName.
func (s *System) RegisterDSP(desc effect.Descriptor) error {
	if desc.Name == "" || desc.New == nil {
		return fmt.Errorf("%w: %q", ErrInvalidDescriptor, desc.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[desc.Name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, desc.Name)
	}
	s.registry[desc.Name] = desc
	s.log.Debug("dsp registered", "name", desc.Name, "params", len(desc.Params))
	return nil
}

// CreateDSPByName instantiates a registered descriptor.
func (s *System) CreateDSPByName(name string) (*DSP, error) {
	s.mu.Lock()
	desc, ok := s.registry[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDSP, name)
	}
	return s.CreateDSP(desc)
}

// CreateDSPByType instantiates a built-in effect.
func (s *System) CreateDSPByType(t DSPType) (*DSP, error) {
	desc, ok := t.descriptor()
	if !ok {
		return nil, fmt.Errorf("%w: type %d", ErrUnknownDSP, t)
	}
	return s.CreateDSP(desc)
}

// CreateDSP instantiates desc. If the node's Create fails the node is
// dropped without Process or Release being called.
func (s *System) CreateDSP(desc effect.Descriptor) (*DSP, error) {
	if desc.New == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDescriptor, desc.Name)
	}

	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil, ErrNotInitialized
	}
	h := host{blockSize: s.cfg.BlockSize, sampleRate: s.format.SampleRate}
	s.mu.Unlock()

	node := desc.New()
	if node == nil {
		return nil, fmt.Errorf("%w: %q returned no node", ErrInvalidDescriptor, desc.Name)
	}
	if err := node.Create(h); err != nil {
		return nil, fmt.Errorf("creating dsp %q: %w", desc.Name, err)
	}

	d := &DSP{id: uuid.New(), sys: s, desc: desc, node: node}

	s.mu.Lock()
	s.dsps = append(s.dsps, d)
	s.mu.Unlock()

	s.log.Debug("dsp created", "dsp", d.id, "name", desc.Name)
	return d, nil
}

func (d *DSP) ID() uuid.UUID                 { return d.id }
func (d *DSP) Descriptor() effect.Descriptor { return d.desc }

// SetBypass skips the node in the mixer while set. Its state does not
// advance.
func (d *DSP) SetBypass(bypass bool) error {
	if d.released.Load() {
		return ErrInvalidHandle
	}
	d.bypass.Store(bypass)
	return nil
}

func (d *DSP) Bypass() (bool, error) {
	if d.released.Load() {
		return false, ErrInvalidHandle
	}
	return d.bypass.Load(), nil
}

func (d *DSP) SetParameterFloat(index int, v float32) error {
	if d.released.Load() {
		return ErrInvalidHandle
	}
	return d.node.SetParameterFloat(index, v)
}

func (d *DSP) ParameterFloat(index int) (float32, string, error) {
	if d.released.Load() {
		return 0, "", ErrInvalidHandle
	}
	return d.node.ParameterFloat(index)
}

func (d *DSP) ParameterData(index int) ([]byte, error) {
	if d.released.Load() {
		return nil, ErrInvalidHandle
	}
	return d.node.ParameterData(index)
}

// ProcessFailures counts blocks the node rejected.
func (d *DSP) ProcessFailures() uint64 { return d.failures.Load() }

// Attached reports whether the DSP is on a live channel.
func (d *DSP) Attached() bool {
	d.sys.mu.Lock()
	defer d.sys.mu.Unlock()
	return d.channel != nil
}

// Release detaches the node and frees it. Releasing twice returns
// ErrInvalidHandle.
func (d *DSP) Release() error {
	s := d.sys
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.released.Load() {
		return ErrInvalidHandle
	}
	d.releaseLocked()
	for i, x := range s.dsps {
		if x == d {
			s.dsps = append(s.dsps[:i], s.dsps[i+1:]...)
			break
		}
	}
	s.log.Debug("dsp released", "dsp", d.id)
	return nil
}

func (d *DSP) releaseLocked() {
	if d.released.Swap(true) {
		return
	}
	if d.channel != nil {
		d.channel.removeDSPLocked(d)
	}
	d.node.Release()
}

// process runs the node unless bypassed. Called by the mixer with sys.mu held.
func (d *DSP) process(buf []float32, frames, channels int) {
	if d.bypass.Load() {
		return
	}
	if err := d.node.Process(buf, buf, frames, channels); err != nil {
		d.failures.Add(1)
	}
}
