// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"slices"
	"testing"

	"github.com/ik5/spatialfx/effect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probeNode records how the engine drives it.
type probeNode struct {
	createErr error
	host      effect.Host
	processed int
	released  int
}

func (n *probeNode) Create(h effect.Host) error {
	n.host = h
	return n.createErr
}

func (n *probeNode) Process(in, out []float32, length, channels int) error {
	n.processed++
	copy(out, in[:length*channels])
	return nil
}

func (n *probeNode) Release()                                  { n.released++ }
func (n *probeNode) ParameterFloat(int) (float32, string, error) { return 0, "", nil }
func (n *probeNode) SetParameterFloat(int, float32) error        { return nil }
func (n *probeNode) ParameterData(int) ([]byte, error)           { return nil, nil }

func probeDescriptor(n *probeNode) effect.Descriptor {
	return effect.Descriptor{Name: "probe", New: func() effect.Node { return n }}
}

func TestCreateDSP_FailedCreateIsDropped(t *testing.T) {
	t.Parallel()

	s, dev := newTestSystem(t)
	probe := &probeNode{createErr: effect.ErrAllocation}

	d, err := s.CreateDSP(probeDescriptor(probe))
	assert.ErrorIs(t, err, effect.ErrAllocation)
	assert.Nil(t, d)

	require.NoError(t, dev.Pump(256))
	require.NoError(t, s.Close())
	assert.Zero(t, probe.processed)
	assert.Zero(t, probe.released)
}

func TestCreateDSP_HostReportsEngineFormat(t *testing.T) {
	t.Parallel()

	s, _ := newTestSystem(t)
	probe := &probeNode{}

	_, err := s.CreateDSP(probeDescriptor(probe))
	require.NoError(t, err)
	assert.Equal(t, testBlock, probe.host.BlockSize())
	assert.Equal(t, testRate, probe.host.SampleRate())
}

func TestRegisterDSP(t *testing.T) {
	t.Parallel()

	s, _ := newTestSystem(t)
	desc := effect.FilterDescriptor(effect.Echo)

	require.NoError(t, s.RegisterDSP(desc))
	assert.ErrorIs(t, s.RegisterDSP(desc), ErrAlreadyRegistered)
	assert.ErrorIs(t, s.RegisterDSP(effect.Descriptor{Name: "nothing"}), ErrInvalidDescriptor)

	d, err := s.CreateDSPByName(desc.Name)
	require.NoError(t, err)
	assert.Equal(t, desc.Name, d.Descriptor().Name)

	_, err = s.CreateDSPByName("chorus")
	assert.ErrorIs(t, err, ErrUnknownDSP)

	_, err = s.CreateDSPByType(DSPType(42))
	assert.ErrorIs(t, err, ErrUnknownDSP)

	for _, typ := range []DSPType{DSPTypeLowpass, DSPTypeFlange} {
		d, err := s.CreateDSPByType(typ)
		require.NoError(t, err)
		require.NoError(t, d.Release())
	}
}

func TestDSP_BypassFreezesState(t *testing.T) {
	t.Parallel()

	s, dev := newTestSystem(t)
	snd, err := s.CreateSound(constantWAV(t, "c.wav", 1, 20000, 0.5), ModeDefault)
	require.NoError(t, err)
	ch, err := s.PlaySound(snd, false)
	require.NoError(t, err)

	d, err := s.CreateDSP(effect.FilterDescriptor(effect.Echo))
	require.NoError(t, err)
	require.NoError(t, ch.AddDSP(0, d))
	unit := d.node.(*effect.Filter).Unit()

	bypassed, err := d.Bypass()
	require.NoError(t, err)
	assert.False(t, bypassed)

	// history is 512 samples, a 256 frame delay at stereo
	require.NoError(t, dev.Pump(512))
	engaged := dev.Samples()
	assert.InDelta(t, half, engaged[0], 1e-6)
	assert.InDelta(t, 2*half, engaged[len(engaged)-1], 1e-6)
	cursor := unit.Cursor()
	assert.Equal(t, uint64(testBlock+512), cursor)

	require.NoError(t, d.SetBypass(true))
	dev.Reset()
	require.NoError(t, dev.Pump(512))
	for i, v := range dev.Samples() {
		require.InDelta(t, half, v, 1e-6, "bypassed sample %d", i)
	}
	assert.Equal(t, cursor, unit.Cursor())

	require.NoError(t, d.SetBypass(false))
	dev.Reset()
	require.NoError(t, dev.Pump(64))
	assert.Equal(t, cursor+64, unit.Cursor())
	assert.InDelta(t, 2*half, dev.Samples()[0], 1e-6)
}

func TestDSP_ParametersPassThrough(t *testing.T) {
	t.Parallel()

	s, _ := newTestSystem(t)
	d, err := s.CreateDSP(effect.FilterDescriptor(effect.Blend))
	require.NoError(t, err)

	require.NoError(t, d.SetParameterFloat(effect.FilterParamWet, 0.25))
	v, label, err := d.ParameterFloat(effect.FilterParamWet)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), v)
	assert.Equal(t, "25%", label)

	_, err = d.ParameterData(effect.FilterParamPeaks)
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetParameterFloat(7, 1), effect.ErrInvalidParameter)

	require.NoError(t, d.Release())
	assert.ErrorIs(t, d.Release(), ErrInvalidHandle)
	assert.ErrorIs(t, d.SetParameterFloat(effect.FilterParamWet, 1), ErrInvalidHandle)
	assert.ErrorIs(t, d.SetBypass(true), ErrInvalidHandle)
	_, _, err = d.ParameterFloat(effect.FilterParamWet)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestChannel_DSPChain(t *testing.T) {
	t.Parallel()

	s, _ := newTestSystem(t)
	snd, err := s.CreateSound(constantWAV(t, "c.wav", 1, 1000, 0.5), ModeDefault)
	require.NoError(t, err)
	first, err := s.PlaySound(snd, false)
	require.NoError(t, err)
	second, err := s.PlaySound(snd, false)
	require.NoError(t, err)

	a, err := s.CreateDSPByType(DSPTypeLowpass)
	require.NoError(t, err)
	b, err := s.CreateDSPByType(DSPTypeFlange)
	require.NoError(t, err)

	require.NoError(t, first.AddDSP(0, a))
	require.NoError(t, first.AddDSP(0, b))
	chain, err := first.DSPs()
	require.NoError(t, err)
	assert.Equal(t, []*DSP{b, a}, chain)

	// moving a DSP takes it off the old channel
	require.NoError(t, second.AddDSP(5, a))
	chain, _ = first.DSPs()
	assert.Equal(t, []*DSP{b}, chain)
	chain, _ = second.DSPs()
	assert.Equal(t, []*DSP{a}, chain)

	require.NoError(t, second.RemoveDSP(a))
	assert.False(t, a.Attached())
	require.NoError(t, second.RemoveDSP(b))
	assert.True(t, b.Attached())

	require.NoError(t, b.Release())
	chain, _ = first.DSPs()
	assert.Empty(t, chain)
	assert.ErrorIs(t, first.AddDSP(0, b), ErrInvalidHandle)

	require.NoError(t, first.Stop())
	_, err = first.DSPs()
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestDSP_ProcessFailuresAreCounted(t *testing.T) {
	t.Parallel()

	s, dev := newTestSystem(t)
	snd, err := s.CreateSound(constantWAV(t, "c.wav", 1, 1000, 0.5), ModeDefault)
	require.NoError(t, err)
	ch, err := s.PlaySound(snd, false)
	require.NoError(t, err)

	d, err := s.CreateDSP(effect.FilterDescriptor(effect.Echo))
	require.NoError(t, err)
	require.NoError(t, ch.AddDSP(0, d))

	// Release the node behind the engine's back: every block is rejected.
	d.node.Release()
	require.NoError(t, dev.Pump(128))
	assert.Equal(t, uint64(2), d.ProcessFailures())
	assert.False(t, slices.ContainsFunc(dev.Samples(), func(v float32) bool { return v == 0 }))
}
