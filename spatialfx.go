// SPDX-License-Identifier: EPL-2.0

package spatialfx

import (
	"fmt"
	"log/slog"

	"github.com/ik5/spatialfx/config"
	"github.com/ik5/spatialfx/controller"
	"github.com/ik5/spatialfx/effect"
	"github.com/ik5/spatialfx/engine"
	"github.com/ik5/spatialfx/output"
	"github.com/ik5/spatialfx/spatial"
)

// Options translates cfg into controller options. The output device is
// opened when the controller initializes.
func Options(cfg config.Config, log *slog.Logger) (controller.Options, error) {
	if err := cfg.Validate(); err != nil {
		return controller.Options{}, err
	}
	preset, err := effect.PresetByName(cfg.Filter.Preset)
	if err != nil {
		return controller.Options{}, err
	}
	if log == nil {
		log = slog.Default()
	}

	format := output.Format{SampleRate: cfg.SampleRate, Channels: cfg.OutputChannels}
	kind, path := cfg.Output, cfg.OutputFile

	return controller.Options{
		Engine: engine.Config{
			BlockSize:    cfg.BlockSize,
			MaxChannels:  cfg.MaxChannels,
			StreamBuffer: cfg.StreamBuffer,
			Logger:       log,
		},
		Output: func() (output.Device, error) {
			return output.Open(kind, path, format)
		},
		Preset: preset,
		Step:   cfg.Filter.Step,
		Settings: spatial.Settings{
			DopplerScale:   cfg.ThreeD.DopplerScale,
			DistanceFactor: cfg.ThreeD.DistanceFactor,
			RolloffScale:   cfg.ThreeD.RolloffScale,
		},
		MinDistance: cfg.ThreeD.MinDistance,
		MaxDistance: cfg.ThreeD.MaxDistance,
		Logger:      log,
	}, nil
}

// New builds an uninitialized controller from cfg.
func New(cfg config.Config) (*controller.Controller, error) {
	opts, err := Options(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("building controller: %w", err)
	}
	return controller.New(opts), nil
}

// Wall returns the configured obstacle. ok is false when none is set.
func Wall(cfg config.Config) (w controller.Wall, ok bool) {
	if len(cfg.Wall) != len(w.Corners) {
		return w, false
	}
	for i, p := range cfg.Wall {
		if len(p) != 3 {
			return controller.Wall{}, false
		}
		w.Corners[i] = spatial.Vec(p[0], p[1], p[2])
	}
	return w, true
}
