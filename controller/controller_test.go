// SPDX-License-Identifier: EPL-2.0

package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/ik5/spatialfx/effect"
	"github.com/ik5/spatialfx/engine"
	"github.com/ik5/spatialfx/internal/audiotest"
	"github.com/ik5/spatialfx/internal/logging"
	"github.com/ik5/spatialfx/output"
	"github.com/ik5/spatialfx/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 16000

func testOptions(dev output.Device) Options {
	opts := DefaultOptions()
	opts.Engine.BlockSize = 64
	opts.Logger = logging.Discard()
	opts.Output = func() (output.Device, error) { return dev, nil }
	return opts
}

func newController(t *testing.T) (*Controller, *output.Capture) {
	t.Helper()

	dev, err := output.NewCapture(output.Format{SampleRate: testRate, Channels: 2})
	require.NoError(t, err)

	c := New(testOptions(dev))
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { _ = c.Close() })
	return c, dev
}

func toneFile(t *testing.T, name string, frames int) string {
	t.Helper()
	path, err := audiotest.WriteToneWAV(t.TempDir(), name, testRate, 1, frames)
	require.NoError(t, err)
	return path
}

func TestController_RequiresInitialize(t *testing.T) {
	t.Parallel()

	c := New(Options{Logger: logging.Discard()})
	var mirror float32

	checks := map[string]error{
		"LoadDirectionalSound": c.LoadDirectionalSound("a.wav"),
		"PlayDirectionalSound": c.PlayDirectionalSound(),
		"LoadStream":           c.LoadStream("a.wav"),
		"PlayStream":           c.PlayStream(),
		"LoadSpatialSound":     c.LoadSpatialSound("a.wav"),
		"PlaySpatialSound":     c.PlaySpatialSound(),
		"UpdateListenerPose":   c.UpdateListenerPose(spatial.Vector{}, spatial.Vector{}, spatial.Vec(0, 0, 1), spatial.Vec(0, 1, 0)),
		"UpdateSourcePose":     c.UpdateSourcePose(spatial.Vector{}, spatial.Vector{}),
		"StepParameterUp":      c.StepParameterUp(&mirror),
		"StepParameterDown":    c.StepParameterDown(&mirror),
		"Tick":                 c.Tick(time.Millisecond),
		"CreateLowPass":        c.CreateLowPass(),
		"SetFlangeDepth":       c.SetFlangeDepth(0.5),
	}
	for name, err := range checks {
		assert.ErrorIs(t, err, ErrNotInitialized, name)
	}

	_, err := c.ToggleFilterBypass()
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.CreateObstacle(Wall{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.NoError(t, c.Close())
}

func TestInitialize_Failures(t *testing.T) {
	t.Parallel()

	t.Run("output", func(t *testing.T) {
		t.Parallel()
		opts := testOptions(nil)
		opts.Output = func() (output.Device, error) { return nil, output.ErrUnknownDevice }
		err := New(opts).Initialize()
		assert.ErrorIs(t, err, ErrEngineInit)
		assert.ErrorIs(t, err, output.ErrUnknownDevice)
	})

	t.Run("engine config", func(t *testing.T) {
		t.Parallel()
		opts := testOptions(nil)
		opts.Engine.MaxChannels = -1
		err := New(opts).Initialize()
		assert.ErrorIs(t, err, ErrEngineInit)
		assert.ErrorIs(t, err, engine.ErrInvalidConfig)
	})

	t.Run("twice", func(t *testing.T) {
		t.Parallel()
		c, _ := newController(t)
		assert.ErrorIs(t, c.Initialize(), ErrEngineInit)
	})
}

func TestController_SpatialScenario(t *testing.T) {
	t.Parallel()

	c, dev := newController(t)

	require.NoError(t, c.LoadSpatialSound(toneFile(t, "horse.wav", 8000)))
	require.NoError(t, c.PlaySpatialSound())

	ch := c.Channel()
	require.NotNil(t, ch)
	pos, _, err := ch.Get3DAttributes()
	require.NoError(t, err)
	assert.Equal(t, spatial.Vector{}, pos)
	vol, err := ch.Volume()
	require.NoError(t, err)
	assert.Equal(t, float32(1), vol)

	chain, err := ch.DSPs()
	require.NoError(t, err)
	assert.Equal(t, []*engine.DSP{c.Filter()}, chain)

	require.NoError(t, c.UpdateListenerPose(spatial.Vec(0, 0, 0), spatial.Vec(0, 0, 0), spatial.Vec(0, 0, 1), spatial.Vec(0, 1, 0)))
	require.NoError(t, c.UpdateSourcePose(spatial.Vec(3, 3, 1), spatial.Vec(1, 1, 1)))

	assert.Equal(t, spatial.Vec(3, 3, 1), c.SourcePose().Position)
	assert.Equal(t, spatial.Vec(1, 1, 1), c.SourcePose().Velocity)
	assert.Equal(t, spatial.Vec(0, 0, 1), c.ListenerPose().Forward)

	pos, vel, err := ch.Get3DAttributes()
	require.NoError(t, err)
	assert.Equal(t, spatial.Vec(3, 3, 1), pos)
	assert.Equal(t, spatial.Vec(1, 1, 1), vel)

	require.NoError(t, c.Tick(20*time.Millisecond))
	assert.Equal(t, 320, dev.Frames())

	var loud bool
	for _, v := range dev.Samples() {
		if v != 0 {
			loud = true
			break
		}
	}
	assert.True(t, loud)
}

func TestController_SourcePoseWithoutChannel(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)
	require.NoError(t, c.UpdateSourcePose(spatial.Vec(3, 3, 1), spatial.Vec(1, 1, 1)))
	assert.Equal(t, spatial.Vec(3, 3, 1), c.SourcePose().Position)

	// A stopped channel is dropped from the slot, not reported.
	require.NoError(t, c.LoadSpatialSound(toneFile(t, "horse.wav", 800)))
	require.NoError(t, c.PlaySpatialSound())
	require.NoError(t, c.Channel().Stop())
	require.NoError(t, c.UpdateSourcePose(spatial.Vec(1, 2, 3), spatial.Vector{}))
	assert.Nil(t, c.Channel())
	assert.Equal(t, spatial.Vec(1, 2, 3), c.SourcePose().Position)
}

func TestController_StepParameter(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)
	assert.Equal(t, float32(1), c.Parameter())

	var mirror float32 = 1
	for range 30 {
		require.NoError(t, c.StepParameterDown(&mirror))
		require.GreaterOrEqual(t, mirror, float32(0))
	}
	assert.Equal(t, float32(0), mirror)
	assert.Equal(t, float32(0), c.Parameter())

	for range 30 {
		require.NoError(t, c.StepParameterUp(&mirror))
		require.LessOrEqual(t, mirror, float32(1))
	}
	assert.Equal(t, float32(1), mirror)

	v, _, err := c.Filter().ParameterFloat(effect.FilterParamWet)
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)

	require.NoError(t, c.StepParameterDown(nil))
	assert.InDelta(t, 0.95, c.Parameter(), 1e-6)
}

func TestController_ToggleFilterBypass(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)
	assert.Equal(t, Engaged, c.FilterState())

	state, err := c.ToggleFilterBypass()
	require.NoError(t, err)
	assert.Equal(t, Bypassed, state)
	assert.True(t, c.Bypassed())
	bypass, err := c.Filter().Bypass()
	require.NoError(t, err)
	assert.True(t, bypass)

	state, err = c.ToggleFilterBypass()
	require.NoError(t, err)
	assert.Equal(t, Engaged, state)
	assert.Equal(t, "engaged", state.String())

	// Tick picks up a flag set on the node directly.
	require.NoError(t, c.Filter().SetBypass(true))
	require.NoError(t, c.Tick(0))
	assert.Equal(t, Bypassed, c.FilterState())
	assert.Equal(t, "bypassed", c.FilterState().String())
}

func TestController_CreateObstacle(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)
	wall := Wall{Corners: [4]spatial.Vector{
		spatial.Vec(-50, 0, 5),
		spatial.Vec(-50, 50, 5),
		spatial.Vec(50, 0, 5),
		spatial.Vec(50, 50, 5),
	}}

	g, err := c.CreateObstacle(wall)
	require.NoError(t, err)

	active, err := g.Active()
	require.NoError(t, err)
	assert.True(t, active)

	n, err := g.NumPolygons()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	p, err := g.Polygon(0)
	require.NoError(t, err)
	assert.Len(t, p.Vertices, 4)
	assert.Equal(t, []spatial.Vector{
		spatial.Vec(-50, 0, 5),
		spatial.Vec(-50, 50, 5),
		spatial.Vec(50, 50, 5),
		spatial.Vec(50, 0, 5),
	}, p.Vertices)
	assert.True(t, p.DoubleSided)
	assert.Equal(t, ObstacleDirectOcclusion, p.DirectOcclusion)
}

func TestController_ReplacingReleasesPrevious(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)

	require.NoError(t, c.LoadSpatialSound(toneFile(t, "first.wav", 800)))
	first := c.spatial
	require.NoError(t, c.PlaySpatialSound())
	firstChannel := c.Channel()

	require.NoError(t, c.LoadSpatialSound(toneFile(t, "second.wav", 800)))
	assert.NotSame(t, first, c.spatial)
	assert.ErrorIs(t, first.Release(), engine.ErrInvalidHandle)
	assert.False(t, firstChannel.IsPlaying())
	assert.Nil(t, c.Channel())

	minDist, maxDist, err := c.spatial.MinMaxDistance()
	require.NoError(t, err)
	assert.Equal(t, 1.0, minDist)
	assert.Equal(t, 5000.0, maxDist)

	// Playing into the shared slot stops what was there.
	require.NoError(t, c.PlaySpatialSound())
	spatialChannel := c.Channel()
	require.NoError(t, c.LoadStream(toneFile(t, "music.wav", 800)))
	require.NoError(t, c.PlayStream())
	assert.False(t, spatialChannel.IsPlaying())

	stream := c.Channel()
	require.NotNil(t, stream)
	assert.NotSame(t, spatialChannel, stream)
	chain, err := stream.DSPs()
	require.NoError(t, err)
	assert.Equal(t, []*engine.DSP{c.Filter()}, chain)

	// A stream is not positional; the pose is only recorded.
	require.NoError(t, c.UpdateSourcePose(spatial.Vec(1, 0, 0), spatial.Vector{}))
	assert.Same(t, stream, c.Channel())
}

func TestController_LoadErrors(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)

	err := c.LoadSpatialSound("does/not/exist.wav")
	assert.ErrorIs(t, err, ErrResourceLoad)
	assert.ErrorIs(t, c.LoadDirectionalSound("noise.xyz"), ErrResourceLoad)
	assert.ErrorIs(t, c.LoadStream("does/not/exist.ogg"), ErrResourceLoad)

	assert.ErrorIs(t, c.PlaySpatialSound(), ErrNothingLoaded)
	assert.ErrorIs(t, c.PlayStream(), ErrNothingLoaded)
	assert.ErrorIs(t, c.PlayDirectionalSound(), ErrNothingLoaded)
}

func TestController_OneShot(t *testing.T) {
	t.Parallel()

	c, dev := newController(t)
	require.NoError(t, c.LoadDirectionalSound(toneFile(t, "beep.wav", 160)))
	require.NoError(t, c.PlayDirectionalSound())
	require.NoError(t, c.PlayDirectionalSound())

	require.NoError(t, c.Tick(10*time.Millisecond))
	samples := dev.Samples()
	require.Len(t, samples, 320)
	assert.NotZero(t, samples[2])
	assert.Nil(t, c.Channel())
}

func TestController_SpatialSoundPlaysOnce(t *testing.T) {
	t.Parallel()

	c, dev := newController(t)
	require.NoError(t, c.LoadSpatialSound(toneFile(t, "horse.wav", 160)))
	require.NoError(t, c.PlaySpatialSound())
	assert.False(t, c.spatial.Mode().Is(engine.ModeLoop))

	require.NoError(t, c.Tick(20*time.Millisecond))
	assert.Nil(t, c.Channel())

	dev.Reset()
	require.NoError(t, c.Tick(20*time.Millisecond))
	for i, v := range dev.Samples() {
		require.Zero(t, v, "sample %d after the sound ended", i)
	}
}

func TestController_Effects(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)

	assert.ErrorIs(t, c.SetLowPass(1000), ErrNoLowPass)
	_, err := c.FlangeDepth()
	assert.ErrorIs(t, err, ErrNoFlange)

	require.NoError(t, c.LoadSpatialSound(toneFile(t, "horse.wav", 8000)))
	require.NoError(t, c.PlaySpatialSound())

	require.NoError(t, c.CreateLowPass())
	require.NoError(t, c.CreateLowPass())
	chain, err := c.Channel().DSPs()
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Same(t, c.Filter(), chain[0])

	require.NoError(t, c.SetLowPass(1200))
	hz, err := c.LowPass()
	require.NoError(t, err)
	assert.Equal(t, float32(1200), hz)

	require.NoError(t, c.CreateFlange())
	require.NoError(t, c.SetFlangeDepth(0.3))
	depth, err := c.FlangeDepth()
	require.NoError(t, err)
	assert.InDelta(t, 0.3, depth, 1e-6)

	// Replaying attaches the whole chain again.
	require.NoError(t, c.PlaySpatialSound())
	chain, err = c.Channel().DSPs()
	require.NoError(t, err)
	assert.Len(t, chain, 3)
}

func TestController_Close(t *testing.T) {
	t.Parallel()

	c, _ := newController(t)
	require.NoError(t, c.LoadSpatialSound(toneFile(t, "horse.wav", 800)))
	require.NoError(t, c.PlaySpatialSound())
	ch := c.Channel()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.False(t, ch.IsPlaying())
	assert.True(t, errors.Is(c.PlaySpatialSound(), ErrNotInitialized))
}
