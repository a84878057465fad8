// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ik5/spatialfx"
	"github.com/ik5/spatialfx/config"
	"github.com/ik5/spatialfx/controller"
	"github.com/ik5/spatialfx/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

type actor int

const (
	actorSource actor = iota
	actorListener
)

func (a actor) String() string {
	if a == actorListener {
		return "listener"
	}
	return "source"
}

// moveStep is how far one arrow key press moves the active actor.
const moveStep = 0.5

// orbit is the scripted source path used when no keyboard is attached.
const (
	orbitRadius = 5.0
	orbitPeriod = 8 * time.Second
)

// App is the demo's application context: it owns the controller and the
// actors and turns commands and frame ticks into controller calls.
type App struct {
	cfg config.Config
	ctl *controller.Controller
	log *slog.Logger

	moving   actor
	orbiting bool
	elapsed  time.Duration

	listener spatial.Pose
	source   spatial.Vector
	prev     [2]spatial.Vector

	parameter float32
	cutoff    float32
	depth     float32
}

func NewApp(cfg config.Config, ctl *controller.Controller, log *slog.Logger) *App {
	return &App{
		cfg:       cfg,
		ctl:       ctl,
		log:       log.With("component", "app"),
		listener:  spatial.DefaultPose(),
		source:    spatial.Vec(3, 3, 1),
		parameter: 1,
		cutoff:    cfg.LowPass.Cutoff,
		depth:     cfg.Flange.Depth,
	}
}

// Setup initializes the controller and loads the scene. Only engine
// initialization is fatal; missing sounds are logged and skipped.
func (a *App) Setup() error {
	if err := a.ctl.Initialize(); err != nil {
		return err
	}

	if w, ok := spatialfx.Wall(a.cfg); ok {
		if _, err := a.ctl.CreateObstacle(w); err != nil {
			a.log.Error("creating obstacle", "err", err)
		}
	}

	load := []struct {
		name string
		path string
		fn   func(string) error
	}{
		{"spatial", a.cfg.Sounds.Spatial, a.ctl.LoadSpatialSound},
		{"one-shot", a.cfg.Sounds.OneShot, a.ctl.LoadDirectionalSound},
		{"stream", a.cfg.Sounds.Stream, a.ctl.LoadStream},
	}
	for _, l := range load {
		if l.path == "" {
			continue
		}
		if err := l.fn(l.path); err != nil {
			a.log.Error("loading sound", "kind", l.name, "path", l.path, "err", err)
		}
	}

	if err := a.ctl.CreateLowPass(); err != nil {
		a.log.Error("creating low-pass", "err", err)
	} else if err := a.ctl.SetLowPass(a.cutoff); err != nil {
		a.log.Error("setting cutoff", "err", err)
	}
	if err := a.ctl.CreateFlange(); err != nil {
		a.log.Error("creating flange", "err", err)
	} else if err := a.ctl.SetFlangeDepth(a.depth); err != nil {
		a.log.Error("setting flange depth", "err", err)
	}

	a.parameter = a.ctl.Parameter()
	a.prev = [2]spatial.Vector{a.source, a.listener.Position}
	return nil
}

// Orbit moves the source on a circle around the origin instead of
// following the arrow keys.
func (a *App) Orbit(on bool) { a.orbiting = on }

// Handle applies cmd. It reports whether the app should quit. Failures are
// logged; none of them stop the demo.
func (a *App) Handle(cmd Command) (quit bool) {
	var err error

	switch cmd {
	case CmdPlayOneShot:
		err = a.ctl.PlayDirectionalSound()
	case CmdPlaySpatial:
		err = a.ctl.PlaySpatialSound()
	case CmdPlayStream:
		err = a.ctl.PlayStream()
	case CmdToggleBypass:
		_, err = a.ctl.ToggleFilterBypass()
	case CmdParamUp:
		err = a.ctl.StepParameterUp(&a.parameter)
	case CmdParamDown:
		err = a.ctl.StepParameterDown(&a.parameter)
	case CmdCutoffDown:
		err = a.setCutoff(a.cutoff - a.cfg.LowPass.Step)
	case CmdCutoffUp:
		err = a.setCutoff(a.cutoff + a.cfg.LowPass.Step)
	case CmdDepthDown:
		err = a.setDepth(a.depth - a.cfg.Flange.Step)
	case CmdDepthUp:
		err = a.setDepth(a.depth + a.cfg.Flange.Step)
	case CmdSwitchActor:
		a.moving = 1 - a.moving
	case CmdForward:
		a.move(spatial.Vec(0, 0, moveStep))
	case CmdBack:
		a.move(spatial.Vec(0, 0, -moveStep))
	case CmdLeft:
		a.move(spatial.Vec(-moveStep, 0, 0))
	case CmdRight:
		a.move(spatial.Vec(moveStep, 0, 0))
	case CmdQuit:
		return true
	}

	if err != nil {
		a.log.Warn("command failed", "command", cmd, "err", err)
	}
	return false
}

func (a *App) setCutoff(hz float32) error {
	hz = min(max(hz, a.cfg.LowPass.Min), a.cfg.LowPass.Max)
	if err := a.ctl.SetLowPass(hz); err != nil {
		return err
	}
	a.cutoff = hz
	return nil
}

func (a *App) setDepth(d float32) error {
	d = min(max(d, 0), 1)
	if err := a.ctl.SetFlangeDepth(d); err != nil {
		return err
	}
	a.depth = d
	return nil
}

func (a *App) move(delta spatial.Vector) {
	if a.moving == actorListener {
		a.listener.Position = r3.Add(a.listener.Position, delta)
		return
	}
	if !a.orbiting {
		a.source = r3.Add(a.source, delta)
	}
}

// Step runs one frame: engine tick first, then the poses. Velocities are
// the distance moved since the previous frame over dt.
func (a *App) Step(dt time.Duration) error {
	tickErr := a.ctl.Tick(dt)

	a.elapsed += dt
	if a.orbiting {
		angle := 2 * math.Pi * a.elapsed.Seconds() / orbitPeriod.Seconds()
		a.source = spatial.Vec(orbitRadius*math.Cos(angle), 0, orbitRadius*math.Sin(angle))
	}

	var srcVel, lisVel spatial.Vector
	if s := dt.Seconds(); s > 0 {
		srcVel = r3.Scale(1/s, r3.Sub(a.source, a.prev[actorSource]))
		lisVel = r3.Scale(1/s, r3.Sub(a.listener.Position, a.prev[actorListener]))
	}
	a.prev = [2]spatial.Vector{a.source, a.listener.Position}
	a.listener.Velocity = lisVel

	l := a.listener
	poseErr := errors.Join(
		a.ctl.UpdateListenerPose(l.Position, l.Velocity, l.Forward, l.Up),
		a.ctl.UpdateSourcePose(a.source, srcVel),
	)
	return errors.Join(tickErr, poseErr)
}

// Status is the one-line display.
func (a *App) Status() string {
	s := a.ctl.SourcePose().Position
	l := a.listener.Position
	return fmt.Sprintf("filter %-8s wet %3.0f%%  cutoff %4.0f Hz  depth %.1f  moving %-8s src (%5.1f %5.1f %5.1f)  ears (%5.1f %5.1f %5.1f)",
		a.ctl.FilterState(), a.ctl.Parameter()*100, a.cutoff, a.depth, a.moving,
		s.X, s.Y, s.Z, l.X, l.Y, l.Z)
}

func (a *App) Close() error { return a.ctl.Close() }
