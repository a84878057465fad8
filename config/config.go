// SPDX-License-Identifier: EPL-2.0

// Package config loads the demo configuration with viper. Every key has a
// default, so a missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/ik5/spatialfx/effect"
	"github.com/ik5/spatialfx/internal/logging"
	"github.com/ik5/spatialfx/output"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SPATIALFX_OUTPUT=null or
// SPATIALFX_LOWPASS_CUTOFF=800.
const EnvPrefix = "SPATIALFX"

type Config struct {
	LogLevel string `mapstructure:"loglevel"`
	LogFile  string `mapstructure:"logfile"`

	// Output is oto, wav or null. OutputFile is the wav destination.
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"outputfile"`
	SampleRate     int    `mapstructure:"samplerate"`
	OutputChannels int    `mapstructure:"outputchannels"`

	BlockSize    int           `mapstructure:"blocksize"`
	MaxChannels  int           `mapstructure:"maxchannels"`
	StreamBuffer time.Duration `mapstructure:"streambuffer"`

	ThreeD  ThreeD  `mapstructure:"threed"`
	Filter  Filter  `mapstructure:"filter"`
	LowPass LowPass `mapstructure:"lowpass"`
	Flange  Flange  `mapstructure:"flange"`
	Sounds  Sounds  `mapstructure:"sounds"`

	// Wall holds four x,y,z corners in triangle-strip order. Empty means
	// no obstacle.
	Wall [][]float64 `mapstructure:"wall"`

	// TickRate is the game loop frequency in Hz.
	TickRate int `mapstructure:"tickrate"`
}

type ThreeD struct {
	DopplerScale   float64 `mapstructure:"dopplerscale"`
	DistanceFactor float64 `mapstructure:"distancefactor"`
	RolloffScale   float64 `mapstructure:"rolloffscale"`
	MinDistance    float64 `mapstructure:"mindistance"`
	MaxDistance    float64 `mapstructure:"maxdistance"`
}

type Filter struct {
	Preset string  `mapstructure:"preset"`
	Step   float32 `mapstructure:"step"`
}

type LowPass struct {
	Cutoff float32 `mapstructure:"cutoff"`
	Step   float32 `mapstructure:"step"`
	Min    float32 `mapstructure:"min"`
	Max    float32 `mapstructure:"max"`
}

type Flange struct {
	Depth float32 `mapstructure:"depth"`
	Step  float32 `mapstructure:"step"`
}

type Sounds struct {
	Spatial string `mapstructure:"spatial"`
	OneShot string `mapstructure:"oneshot"`
	Stream  string `mapstructure:"stream"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
	v.SetDefault("output", output.KindOto)
	v.SetDefault("outputfile", "spatialfx.wav")
	v.SetDefault("samplerate", 48000)
	v.SetDefault("outputchannels", 2)
	v.SetDefault("blocksize", 512)
	v.SetDefault("maxchannels", 32)
	v.SetDefault("streambuffer", 250*time.Millisecond)

	v.SetDefault("threed.dopplerscale", 1.0)
	v.SetDefault("threed.distancefactor", 0.5)
	v.SetDefault("threed.rolloffscale", 1.0)
	v.SetDefault("threed.mindistance", 1.0)
	v.SetDefault("threed.maxdistance", 5000.0)

	v.SetDefault("filter.preset", effect.Blend.Name)
	v.SetDefault("filter.step", 0.05)

	v.SetDefault("lowpass.cutoff", 2000)
	v.SetDefault("lowpass.step", 100)
	v.SetDefault("lowpass.min", 0)
	v.SetDefault("lowpass.max", 2000)

	v.SetDefault("flange.depth", 0.5)
	v.SetDefault("flange.step", 0.1)

	v.SetDefault("sounds.spatial", "horse.wav")
	v.SetDefault("sounds.oneshot", "")
	v.SetDefault("sounds.stream", "")

	v.SetDefault("wall", [][]float64{
		{-50, 0, 5},
		{-50, 50, 5},
		{50, 0, 5},
		{50, 50, 5},
	})

	v.SetDefault("tickrate", 60)
}

// Default returns the built-in configuration. Unlike Load it ignores the
// environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		// The defaults are literals; failing to decode them is a programming error.
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Load reads path (YAML, TOML or JSON by extension) over the defaults and
// validates the result. An empty or missing path yields the defaults.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
			slog.Info("no config file found", "configFilePath", path)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	switch strings.ToLower(c.Output) {
	case output.KindOto, output.KindNull:
	case output.KindWAV:
		if c.OutputFile == "" {
			bad("outputfile is required for wav output")
		}
	default:
		bad("output %q is not one of oto, wav, null", c.Output)
	}
	if c.SampleRate <= 0 {
		bad("samplerate %d", c.SampleRate)
	}
	if c.OutputChannels < 1 || c.OutputChannels > 8 {
		bad("outputchannels %d is outside 1..8", c.OutputChannels)
	}
	if c.BlockSize <= 0 {
		bad("blocksize %d", c.BlockSize)
	}
	if c.MaxChannels <= 0 {
		bad("maxchannels %d", c.MaxChannels)
	}
	if c.StreamBuffer < 0 {
		bad("streambuffer %s", c.StreamBuffer)
	}

	if c.ThreeD.DistanceFactor <= 0 {
		bad("threed.distancefactor %v", c.ThreeD.DistanceFactor)
	}
	if c.ThreeD.DopplerScale < 0 || c.ThreeD.RolloffScale < 0 {
		bad("threed scales must not be negative")
	}
	if c.ThreeD.MinDistance <= 0 || c.ThreeD.MaxDistance <= c.ThreeD.MinDistance {
		bad("threed distances %v..%v", c.ThreeD.MinDistance, c.ThreeD.MaxDistance)
	}

	if _, err := effect.PresetByName(c.Filter.Preset); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.Filter.Step <= 0 || c.Filter.Step > 1 {
		bad("filter.step %v is outside (0, 1]", c.Filter.Step)
	}

	if c.LowPass.Min < 0 || c.LowPass.Max <= c.LowPass.Min {
		bad("lowpass range %v..%v", c.LowPass.Min, c.LowPass.Max)
	} else if c.LowPass.Cutoff < c.LowPass.Min || c.LowPass.Cutoff > c.LowPass.Max {
		bad("lowpass.cutoff %v is outside %v..%v", c.LowPass.Cutoff, c.LowPass.Min, c.LowPass.Max)
	}
	if c.LowPass.Step <= 0 {
		bad("lowpass.step %v", c.LowPass.Step)
	}

	if c.Flange.Depth < 0 || c.Flange.Depth > 1 {
		bad("flange.depth %v is outside [0, 1]", c.Flange.Depth)
	}
	if c.Flange.Step <= 0 || c.Flange.Step > 1 {
		bad("flange.step %v is outside (0, 1]", c.Flange.Step)
	}

	if len(c.Wall) != 0 {
		if len(c.Wall) != 4 {
			bad("wall needs 4 corners, got %d", len(c.Wall))
		}
		for i, p := range c.Wall {
			if len(p) != 3 {
				bad("wall corner %d needs x, y, z", i)
			}
		}
	}

	if c.TickRate <= 0 || c.TickRate > 1000 {
		bad("tickrate %d is outside 1..1000", c.TickRate)
	}

	return errors.Join(errs...)
}

// TickInterval is the duration of one game loop step.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
