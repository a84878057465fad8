// SPDX-License-Identifier: EPL-2.0

// Package engine is a small software sound engine: sounds, streams,
// channels with effect chains, a 3D listener, occlusion geometry and a
// block-based mixer feeding an output device.
//
// The API is meant for one controlling goroutine (the game loop). The
// output device renders from its own goroutine; the two meet at a single
// mutex taken once per mixed block. Effect parameters and bypass flags are
// atomic and never wait on that mutex.
//
// Streams are decoded in Update. If Update is not called they run dry and
// play silence.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ik5/spatialfx/effect"
	"github.com/ik5/spatialfx/formats"
	"github.com/ik5/spatialfx/output"
	"github.com/ik5/spatialfx/spatial"
)

// Config sets the engine up before Init.
type Config struct {
	// BlockSize is the number of frames mixed per block and handed to each
	// effect node's Process.
	BlockSize int
	// MaxChannels bounds simultaneously playing channels.
	MaxChannels int
	// StreamBuffer is how much decoded audio each stream keeps ahead.
	StreamBuffer time.Duration

	Opener formats.Opener
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		BlockSize:    512,
		MaxChannels:  32,
		StreamBuffer: 250 * time.Millisecond,
	}
}

// System owns every engine resource.
type System struct {
	id     uuid.UUID
	log    *slog.Logger
	opener formats.Opener
	cfg    Config

	mu          sync.Mutex
	initialized bool
	device      output.Device
	format      output.Format
	settings    spatial.Settings
	listener    spatial.Pose
	channels    []*Channel
	geometry    []*Geometry
	dsps        []*DSP
	sounds      []*Sound
	registry    map[string]effect.Descriptor
	reap        []voice
	pumpCarry   float64

	mixer mixer
}

// New validates cfg and returns an uninitialized system.
func New(cfg Config) (*System, error) {
	def := DefaultConfig()
	if cfg.StreamBuffer == 0 {
		cfg.StreamBuffer = def.StreamBuffer
	}
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidConfig, cfg.BlockSize)
	}
	if cfg.MaxChannels <= 0 {
		return nil, fmt.Errorf("%w: max channels %d", ErrInvalidConfig, cfg.MaxChannels)
	}
	if cfg.StreamBuffer < 0 {
		return nil, fmt.Errorf("%w: stream buffer %s", ErrInvalidConfig, cfg.StreamBuffer)
	}
	if cfg.Opener == nil {
		cfg.Opener = formats.NewFileOpener()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	id := uuid.New()
	return &System{
		id:       id,
		log:      cfg.Logger.With("component", "engine", "system", id),
		opener:   cfg.Opener,
		cfg:      cfg,
		settings: spatial.DefaultSettings(),
		listener: spatial.DefaultPose(),
		registry: make(map[string]effect.Descriptor),
	}, nil
}

// Init starts mixing into dev. The device format fixes the engine sample
// rate and output channel count.
func (s *System) Init(dev output.Device) error {
	if dev == nil {
		return fmt.Errorf("%w: no output device", ErrInvalidConfig)
	}
	f := dev.Format()

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}
	s.format = f
	s.device = dev
	s.mixer = newMixer(s.cfg.BlockSize, f.Channels)
	s.initialized = true
	s.mu.Unlock()

	if err := dev.Start(s); err != nil {
		s.mu.Lock()
		s.initialized = false
		s.device = nil
		s.mu.Unlock()
		return fmt.Errorf("starting output: %w", err)
	}

	s.log.Info("engine initialized",
		"sampleRate", f.SampleRate,
		"outputChannels", f.Channels,
		"blockSize", s.cfg.BlockSize,
		"maxChannels", s.cfg.MaxChannels)
	return nil
}

// Close stops the device and releases every resource handle.
func (s *System) Close() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return nil
	}
	dev := s.device
	s.mu.Unlock()

	// The device may be blocked in Render waiting for s.mu.
	devErr := dev.Close()

	s.mu.Lock()
	s.initialized = false
	s.device = nil
	var closing []voice
	for _, ch := range s.channels {
		closing = append(closing, ch.detachLocked())
	}
	s.channels = nil
	closing = append(closing, s.reap...)
	s.reap = nil
	for _, d := range s.dsps {
		d.releaseLocked()
	}
	s.dsps = nil
	for _, g := range s.geometry {
		g.released = true
	}
	s.geometry = nil
	for _, snd := range s.sounds {
		snd.released = true
	}
	s.sounds = nil
	s.mu.Unlock()

	errs := []error{devErr}
	for _, v := range closing {
		errs = append(errs, v.close())
	}

	s.log.Info("engine closed")
	return errors.Join(errs...)
}

// ID identifies the system in logs.
func (s *System) ID() uuid.UUID { return s.id }

// Format is the output format, zero before Init.
func (s *System) Format() output.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// Set3DSettings sets the global doppler scale, distance factor (world
// units per metre) and rolloff scale.
func (s *System) Set3DSettings(dopplerScale, distanceFactor, rolloffScale float64) error {
	if distanceFactor <= 0 || dopplerScale < 0 || rolloffScale < 0 {
		return fmt.Errorf("%w: 3D settings %v/%v/%v", ErrInvalidConfig, dopplerScale, distanceFactor, rolloffScale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.settings = spatial.Settings{
		DopplerScale:   dopplerScale,
		DistanceFactor: distanceFactor,
		RolloffScale:   rolloffScale,
	}
	return nil
}

func (s *System) Settings3D() spatial.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Set3DListenerAttributes replaces the listener pose.
func (s *System) Set3DListenerAttributes(p spatial.Pose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	s.listener = p
	return nil
}

func (s *System) Listener() spatial.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// Update refills streams, closes finished stream sources and, for devices
// without their own clock, renders dt worth of audio.
func (s *System) Update(dt time.Duration) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}

	var streams []*streamVoice
	for _, ch := range s.channels {
		if sv, ok := ch.voice.(*streamVoice); ok {
			streams = append(streams, sv)
		}
	}
	reap := s.reap
	s.reap = nil
	dev := s.device

	frames := 0
	if dt > 0 {
		exact := dt.Seconds()*float64(s.format.SampleRate) + s.pumpCarry
		frames = int(exact)
		s.pumpCarry = exact - float64(frames)
	}
	s.mu.Unlock()

	var errs []error
	for _, v := range reap {
		if err := v.close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, sv := range streams {
		if err := sv.fill(); err != nil {
			s.log.Warn("stream refill failed", "err", err)
			errs = append(errs, err)
		}
	}

	if p, ok := dev.(output.Pumper); ok && frames > 0 {
		if err := p.Pump(frames); err != nil {
			errs = append(errs, fmt.Errorf("pumping output: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ChannelsPlaying counts live channels.
func (s *System) ChannelsPlaying() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

// host is the effect.Host handed to nodes at creation.
type host struct {
	blockSize  int
	sampleRate int
}

func (h host) BlockSize() int  { return h.blockSize }
func (h host) SampleRate() int { return h.sampleRate }
