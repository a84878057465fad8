// SPDX-License-Identifier: EPL-2.0

// Package controller drives the sound engine for a game loop: it owns the
// loaded sounds, the shared playback channel, the filter node and the
// obstacles, and turns per-frame poses and key commands into engine calls.
//
// A Controller is not safe for concurrent use. Call it from the goroutine
// running the game loop: Tick, then the pose updates, once per frame.
package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ik5/spatialfx/effect"
	"github.com/ik5/spatialfx/engine"
	"github.com/ik5/spatialfx/output"
	"github.com/ik5/spatialfx/spatial"
)

// DefaultStep is the filter parameter increment.
const DefaultStep = 0.05

// Options configures a Controller.
type Options struct {
	Engine engine.Config
	// Output opens the device the engine renders to. Initialize calls it
	// once.
	Output func() (output.Device, error)

	// Preset picks the filter node's kernel weights.
	Preset effect.Preset
	// Step is how far StepParameterUp and StepParameterDown move the
	// filter parameter.
	Step float32

	Settings    spatial.Settings
	MinDistance float64
	MaxDistance float64

	Logger *slog.Logger
}

// DefaultOptions renders to a null device at 48 kHz stereo.
func DefaultOptions() Options {
	return Options{
		Engine: engine.DefaultConfig(),
		Output: func() (output.Device, error) {
			return output.NewNull(output.Format{SampleRate: 48000, Channels: 2})
		},
		Preset: effect.Blend,
		Step:   DefaultStep,
		Settings: spatial.Settings{
			DopplerScale:   1.0,
			DistanceFactor: 0.5,
			RolloffScale:   1.0,
		},
		MinDistance: 1,
		MaxDistance: 5000,
	}
}

// Controller is the game-facing audio surface.
type Controller struct {
	opts Options
	log  *slog.Logger

	sys    *engine.System
	filter *engine.DSP

	oneShot *engine.Sound
	stream  *engine.Sound
	spatial *engine.Sound

	// channel is the slot shared by the stream and the spatial sound.
	channel *engine.Channel

	lowpass *engine.DSP
	flange  *engine.DSP

	obstacles []*engine.Geometry

	bypassed  bool
	parameter float32
	listener  spatial.Pose
	source    spatial.SourcePose
}

// New returns a controller. Nothing is started until Initialize.
func New(opts Options) *Controller {
	def := DefaultOptions()
	if opts.Engine.BlockSize == 0 && opts.Engine.MaxChannels == 0 {
		opts.Engine.BlockSize = def.Engine.BlockSize
		opts.Engine.MaxChannels = def.Engine.MaxChannels
	}
	if opts.Output == nil {
		opts.Output = def.Output
	}
	if opts.Preset.Name == "" {
		opts.Preset = def.Preset
	}
	if opts.Step <= 0 {
		opts.Step = def.Step
	}
	if opts.Settings == (spatial.Settings{}) {
		opts.Settings = def.Settings
	}
	if opts.MinDistance <= 0 || opts.MaxDistance <= opts.MinDistance {
		opts.MinDistance, opts.MaxDistance = def.MinDistance, def.MaxDistance
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Engine.Logger == nil {
		opts.Engine.Logger = opts.Logger
	}

	return &Controller{
		opts:      opts,
		log:       opts.Logger.With("component", "controller"),
		parameter: 1,
		listener:  spatial.DefaultPose(),
	}
}

// Initialize creates and starts the engine, registers the filter node
// and creates its instance. If it fails the controller stays unusable.
func (c *Controller) Initialize() error {
	if c.sys != nil {
		return fmt.Errorf("%w: %w", ErrEngineInit, engine.ErrAlreadyInitialized)
	}

	sys, err := engine.New(c.opts.Engine)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngineInit, err)
	}

	dev, err := c.opts.Output()
	if err != nil {
		return fmt.Errorf("%w: opening output: %w", ErrEngineInit, err)
	}
	if err := sys.Init(dev); err != nil {
		_ = dev.Close()
		return fmt.Errorf("%w: %w", ErrEngineInit, err)
	}

	desc := effect.FilterDescriptor(c.opts.Preset)
	if err := sys.RegisterDSP(desc); err != nil {
		_ = sys.Close()
		return fmt.Errorf("%w: %w", ErrEngineInit, err)
	}
	filter, err := sys.CreateDSPByName(desc.Name)
	if err != nil {
		_ = sys.Close()
		return fmt.Errorf("%w: %w", ErrEngineInit, err)
	}

	c.sys = sys
	c.filter = filter
	c.bypassed = false
	c.parameter, _, _ = filter.ParameterFloat(effect.FilterParamWet)

	c.log.Info("controller initialized", "filter", desc.Name, "format", sys.Format())
	return nil
}

func (c *Controller) system() (*engine.System, error) {
	if c.sys == nil {
		return nil, ErrNotInitialized
	}
	return c.sys, nil
}

// load replaces the sound in slot, releasing what was there.
func (c *Controller) load(slot **engine.Sound, path string, create func(string, engine.Mode) (*engine.Sound, error), mode engine.Mode) error {
	if _, err := c.system(); err != nil {
		return err
	}

	snd, err := create(path, mode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResourceLoad, err)
	}

	if old := *slot; old != nil {
		if c.channel != nil && c.channel.Sound() == old {
			c.channel = nil
		}
		if err := old.Release(); err != nil && !errors.Is(err, engine.ErrInvalidHandle) {
			c.log.Warn("releasing replaced sound", "sound", old.ID(), "err", err)
		}
	}
	*slot = snd

	c.log.Info("sound loaded", "sound", snd.ID(), "path", path, "mode", mode)
	return nil
}

// LoadDirectionalSound loads a one-shot, non-positional sound.
func (c *Controller) LoadDirectionalSound(path string) error {
	if c.sys == nil {
		return ErrNotInitialized
	}
	return c.load(&c.oneShot, path, c.sys.CreateSound, engine.ModeDefault)
}

// PlayDirectionalSound fires the one-shot sound on its own channel.
func (c *Controller) PlayDirectionalSound() error {
	sys, err := c.system()
	if err != nil {
		return err
	}
	if c.oneShot == nil {
		return fmt.Errorf("%w: one-shot", ErrNothingLoaded)
	}

	ch, err := sys.PlaySound(c.oneShot, false)
	if err != nil {
		return fmt.Errorf("playing one-shot: %w", err)
	}
	c.log.Debug("one-shot playing", "channel", ch.ID())
	return nil
}

// LoadStream prepares a looping stream.
func (c *Controller) LoadStream(path string) error {
	if c.sys == nil {
		return ErrNotInitialized
	}
	return c.load(&c.stream, path, c.sys.CreateStream, engine.ModeLoop)
}

// PlayStream plays the stream in the shared channel with the filter
// attached.
func (c *Controller) PlayStream() error {
	if _, err := c.system(); err != nil {
		return err
	}
	if c.stream == nil {
		return fmt.Errorf("%w: stream", ErrNothingLoaded)
	}

	ch, err := c.playShared(c.stream)
	if err != nil {
		return err
	}
	if err := c.attachEffects(ch); err != nil {
		return err
	}
	return ch.SetPaused(false)
}

// LoadSpatialSound loads a 3D sound and applies the 3D settings and
// distances from the options.
func (c *Controller) LoadSpatialSound(path string) error {
	sys, err := c.system()
	if err != nil {
		return err
	}

	st := c.opts.Settings
	if err := sys.Set3DSettings(st.DopplerScale, st.DistanceFactor, st.RolloffScale); err != nil {
		return fmt.Errorf("setting 3D attributes: %w", err)
	}
	if err := c.load(&c.spatial, path, sys.CreateSound, engine.Mode3D); err != nil {
		return err
	}
	if err := c.spatial.Set3DMinMaxDistance(c.opts.MinDistance, c.opts.MaxDistance); err != nil {
		return fmt.Errorf("setting 3D distances: %w", err)
	}
	return nil
}

// PlaySpatialSound plays the 3D sound in the shared channel at the
// origin, at unity volume, with the filter and any extra effects attached.
func (c *Controller) PlaySpatialSound() error {
	if _, err := c.system(); err != nil {
		return err
	}
	if c.spatial == nil {
		return fmt.Errorf("%w: spatial sound", ErrNothingLoaded)
	}

	ch, err := c.playShared(c.spatial)
	if err != nil {
		return err
	}
	if err := ch.Set3DAttributes(spatial.Vector{}, spatial.Vector{}); err != nil {
		return fmt.Errorf("placing spatial sound: %w", err)
	}
	if err := ch.SetVolume(1); err != nil {
		return fmt.Errorf("placing spatial sound: %w", err)
	}
	if err := c.attachEffects(ch); err != nil {
		return err
	}
	return ch.SetPaused(false)
}

// playShared stops whatever holds the shared channel and starts snd there,
// paused so effects can be attached first.
func (c *Controller) playShared(snd *engine.Sound) (*engine.Channel, error) {
	if c.channel != nil {
		if err := c.channel.Stop(); err != nil && !errors.Is(err, engine.ErrInvalidHandle) {
			c.log.Warn("stopping previous channel", "channel", c.channel.ID(), "err", err)
		}
		c.channel = nil
	}

	ch, err := c.sys.PlaySound(snd, true)
	if err != nil {
		return nil, fmt.Errorf("playing %s: %w", snd.Path(), err)
	}
	c.channel = ch
	return ch, nil
}

func (c *Controller) attachEffects(ch *engine.Channel) error {
	for i, d := range c.chain() {
		if err := ch.AddDSP(i, d); err != nil {
			return fmt.Errorf("attaching %s: %w", d.Descriptor().Name, err)
		}
	}
	return nil
}

// UpdateListenerPose moves the listener.
func (c *Controller) UpdateListenerPose(pos, vel, forward, up spatial.Vector) error {
	sys, err := c.system()
	if err != nil {
		return err
	}
	p := spatial.Pose{Position: pos, Velocity: vel, Forward: forward, Up: up}
	if err := sys.Set3DListenerAttributes(p); err != nil {
		return fmt.Errorf("updating listener: %w", err)
	}
	c.listener = p
	return nil
}

// UpdateSourcePose records the source pose and applies it to the shared
// channel when a 3D sound is playing there. A channel that has ended is
// dropped from the slot.
func (c *Controller) UpdateSourcePose(pos, vel spatial.Vector) error {
	if _, err := c.system(); err != nil {
		return err
	}
	c.source = spatial.SourcePose{Position: pos, Velocity: vel}

	ch := c.channel
	if ch == nil || !ch.Sound().Mode().Is(engine.Mode3D) {
		return nil
	}
	err := ch.Set3DAttributes(pos, vel)
	if errors.Is(err, engine.ErrInvalidHandle) {
		c.channel = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("updating source: %w", err)
	}
	return nil
}

func (c *Controller) ListenerPose() spatial.Pose     { return c.listener }
func (c *Controller) SourcePose() spatial.SourcePose { return c.source }

// Channel returns the shared channel, nil when nothing plays there.
func (c *Controller) Channel() *engine.Channel { return c.channel }

// Filter returns the filter node instance.
func (c *Controller) Filter() *engine.DSP { return c.filter }

// ToggleFilterBypass flips the filter between Engaged and Bypassed.
func (c *Controller) ToggleFilterBypass() (FilterState, error) {
	if _, err := c.system(); err != nil {
		return Engaged, err
	}
	next := !c.bypassed
	if err := c.filter.SetBypass(next); err != nil {
		return stateOf(c.bypassed), fmt.Errorf("toggling bypass: %w", err)
	}
	c.bypassed = next

	c.log.Debug("filter bypass toggled", "state", stateOf(next))
	return stateOf(next), nil
}

// FilterState reports the cached bypass state.
func (c *Controller) FilterState() FilterState { return stateOf(c.bypassed) }

// Bypassed reports the cached bypass flag.
func (c *Controller) Bypassed() bool { return c.bypassed }

// Parameter is the cached filter parameter.
func (c *Controller) Parameter() float32 { return c.parameter }

// StepParameterUp raises the filter parameter by one step, saturating at 1.
// mirror, if not nil, receives the new value.
func (c *Controller) StepParameterUp(mirror *float32) error {
	return c.stepParameter(c.opts.Step, mirror)
}

// StepParameterDown lowers the filter parameter by one step, saturating at 0.
func (c *Controller) StepParameterDown(mirror *float32) error {
	return c.stepParameter(-c.opts.Step, mirror)
}

func (c *Controller) stepParameter(delta float32, mirror *float32) error {
	if _, err := c.system(); err != nil {
		return err
	}
	v, _, err := c.filter.ParameterFloat(effect.FilterParamWet)
	if err != nil {
		return fmt.Errorf("reading filter parameter: %w", err)
	}
	v = stepClamped(v, delta)
	if err := c.filter.SetParameterFloat(effect.FilterParamWet, v); err != nil {
		return fmt.Errorf("writing filter parameter: %w", err)
	}
	c.parameter = v
	if mirror != nil {
		*mirror = v
	}
	return nil
}

// Tick advances the engine by dt and refreshes the cached filter state.
// It must run every frame or streams stall.
func (c *Controller) Tick(dt time.Duration) error {
	sys, err := c.system()
	if err != nil {
		return err
	}

	updateErr := sys.Update(dt)

	if b, err := c.filter.Bypass(); err == nil {
		c.bypassed = b
	}
	if v, _, err := c.filter.ParameterFloat(effect.FilterParamWet); err == nil {
		c.parameter = v
	}
	if c.channel != nil && !c.channel.IsPlaying() {
		c.channel = nil
	}

	if updateErr != nil {
		return fmt.Errorf("engine update: %w", updateErr)
	}
	return nil
}

// Close shuts the engine down and releases every handle.
func (c *Controller) Close() error {
	if c.sys == nil {
		return nil
	}
	err := c.sys.Close()

	c.sys = nil
	c.filter, c.lowpass, c.flange = nil, nil, nil
	c.oneShot, c.stream, c.spatial = nil, nil, nil
	c.channel = nil
	c.obstacles = nil

	c.log.Info("controller closed")
	return err
}
