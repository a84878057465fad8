// SPDX-License-Identifier: EPL-2.0

// Package spatialfx is a small spatial audio stack for games: a software
// sound engine with 3D positioning, occlusion and pluggable effect nodes,
// and a controller that a game loop drives once per frame.
//
// # Packages
//
//   - dsp: the circular-history filter kernel, a one-pole low-pass and a flanger
//   - effect: effect nodes the engine hosts (filter presets, low-pass, flange)
//   - spatial: vectors, listener poses, attenuation, panning, doppler, occlusion tests
//   - engine: sounds, streams, channels, effect chains, geometry and the mixer
//   - output: realtime (oto), WAV file and capture devices
//   - controller: the game-facing surface
//   - config: viper-backed settings
//   - audio, formats: decoding WAV, MP3, Ogg Vorbis and AIFF and resampling
//
// # Quick Start
//
//	cfg, _ := config.Load("spatialfx.yaml")
//	ctl, _ := spatialfx.New(cfg)
//	if err := ctl.Initialize(); err != nil {
//	    return err
//	}
//	defer ctl.Close()
//
//	_ = ctl.LoadSpatialSound("horse.wav")
//	_ = ctl.PlaySpatialSound()
//
//	for each frame {
//	    _ = ctl.Tick(dt)
//	    _ = ctl.UpdateListenerPose(pos, vel, forward, up)
//	    _ = ctl.UpdateSourcePose(srcPos, srcVel)
//	}
//
// # Threads
//
// The controller and the engine API belong to the game loop goroutine. The
// output device renders on its own goroutine. Effect parameters and the
// bypass flag cross between the two through atomics only.
//
// Tick must run every frame: it refills streams and, for the WAV and null
// devices, renders the elapsed time.
package spatialfx
