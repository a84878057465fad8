// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/ik5/spatialfx"
	"github.com/ik5/spatialfx/config"
	"github.com/ik5/spatialfx/controller"
	"github.com/ik5/spatialfx/engine"
	"github.com/ik5/spatialfx/internal/audiotest"
	"github.com/ik5/spatialfx/internal/logging"
	"github.com/ik5/spatialfx/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()

	dir := t.TempDir()
	tone := func(name string) string {
		path, err := audiotest.WriteToneWAV(dir, name, 16000, 1, 16000)
		require.NoError(t, err)
		return path
	}

	cfg := config.Default()
	cfg.Output = "null"
	cfg.SampleRate = 16000
	cfg.BlockSize = 128
	cfg.Sounds = config.Sounds{
		Spatial: tone("horse.wav"),
		OneShot: tone("beep.wav"),
		Stream:  tone("music.wav"),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	opts, err := spatialfx.Options(cfg, logging.Discard())
	require.NoError(t, err)
	app := NewApp(cfg, controller.New(opts), logging.Discard())
	require.NoError(t, app.Setup())
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_Setup(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	hz, err := app.ctl.LowPass()
	require.NoError(t, err)
	assert.Equal(t, float32(2000), hz)

	depth, err := app.ctl.FlangeDepth()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, depth, 1e-6)

	assert.Equal(t, float32(1), app.parameter)

	for _, cmd := range []Command{CmdPlaySpatial, CmdPlayOneShot, CmdPlayStream} {
		assert.False(t, app.Handle(cmd))
	}
	require.NotNil(t, app.ctl.Channel())
	assert.True(t, app.ctl.Channel().Sound().Mode().Is(engine.ModeStream))
}

func TestApp_SetupSkipsMissingSounds(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, func(c *config.Config) {
		c.Sounds = config.Sounds{Spatial: "missing.wav"}
		c.Wall = nil
	})

	// nothing loaded: logged, not fatal
	assert.False(t, app.Handle(CmdPlaySpatial))
	assert.Nil(t, app.ctl.Channel())
	require.NoError(t, app.Step(10*time.Millisecond))
}

func TestApp_FilterCommands(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	app.Handle(CmdParamDown)
	assert.InDelta(t, 0.95, app.parameter, 1e-6)
	app.Handle(CmdParamUp)
	app.Handle(CmdParamUp)
	assert.Equal(t, float32(1), app.parameter)

	app.Handle(CmdToggleBypass)
	assert.Equal(t, controller.Bypassed, app.ctl.FilterState())
	app.Handle(CmdToggleBypass)
	assert.Equal(t, controller.Engaged, app.ctl.FilterState())
}

func TestApp_EffectCommandsClamp(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	app.Handle(CmdCutoffUp)
	assert.Equal(t, float32(2000), app.cutoff)
	for range 25 {
		app.Handle(CmdCutoffDown)
	}
	assert.Equal(t, float32(0), app.cutoff)
	app.Handle(CmdCutoffUp)
	hz, err := app.ctl.LowPass()
	require.NoError(t, err)
	assert.Equal(t, float32(100), hz)

	for range 10 {
		app.Handle(CmdDepthUp)
	}
	assert.Equal(t, float32(1), app.depth)
	for range 12 {
		app.Handle(CmdDepthDown)
	}
	assert.Equal(t, float32(0), app.depth)
}

func TestApp_MovesActors(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	assert.True(t, app.Handle(CmdQuit))

	start := app.source
	app.Handle(CmdForward)
	app.Handle(CmdRight)
	require.NoError(t, app.Step(100*time.Millisecond))

	want := r3.Add(start, spatial.Vec(moveStep, 0, moveStep))
	assert.Equal(t, want, app.ctl.SourcePose().Position)
	assert.InDelta(t, 5.0, app.ctl.SourcePose().Velocity.X, 1e-9)
	assert.InDelta(t, 5.0, app.ctl.SourcePose().Velocity.Z, 1e-9)

	app.Handle(CmdSwitchActor)
	assert.Equal(t, actorListener, app.moving)
	app.Handle(CmdBack)
	app.Handle(CmdLeft)
	require.NoError(t, app.Step(100*time.Millisecond))

	l := app.ctl.ListenerPose()
	assert.Equal(t, spatial.Vec(-moveStep, 0, -moveStep), l.Position)
	assert.InDelta(t, -5.0, l.Velocity.Z, 1e-9)
	assert.Equal(t, want, app.ctl.SourcePose().Position)
	assert.Equal(t, spatial.Vector{}, app.ctl.SourcePose().Velocity)

	app.Handle(CmdSwitchActor)
	assert.Equal(t, actorSource, app.moving)
	assert.Contains(t, app.Status(), "moving source")
}

func TestApp_Orbit(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)
	app.Orbit(true)

	for range 10 {
		require.NoError(t, app.Step(50*time.Millisecond))
		p := app.ctl.SourcePose().Position
		assert.InDelta(t, orbitRadius, math.Hypot(p.X, p.Z), 1e-9)
	}

	// arrow keys do not fight the orbit
	before := app.source
	app.Handle(CmdForward)
	assert.Equal(t, before, app.source)
}

func TestLoop(t *testing.T) {
	t.Parallel()

	t.Run("quit", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t, nil)
		cmds := make(chan Command, 2)
		cmds <- CmdToggleBypass
		cmds <- CmdQuit

		err := loop(context.Background(), app, cmds, time.Millisecond, nil)
		assert.ErrorIs(t, err, errQuit)
		assert.Equal(t, controller.Bypassed, app.ctl.FilterState())
	})

	t.Run("context", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		var status bytes.Buffer
		err := loop(ctx, app, nil, time.Millisecond, &status)
		assert.NoError(t, err)
		assert.Contains(t, status.String(), "filter engaged")
	})
}
