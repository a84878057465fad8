// SPDX-License-Identifier: EPL-2.0

package controller

import (
	"fmt"

	"github.com/ik5/spatialfx/effect"
	"github.com/ik5/spatialfx/engine"
)

// CreateLowPass adds a low-pass node behind the filter. It joins the shared
// channel now if something plays there, and on every later play.
func (c *Controller) CreateLowPass() error {
	return c.createEffect(&c.lowpass, engine.DSPTypeLowpass)
}

// CreateFlange adds a flanger behind the filter.
func (c *Controller) CreateFlange() error {
	return c.createEffect(&c.flange, engine.DSPTypeFlange)
}

func (c *Controller) createEffect(slot **engine.DSP, typ engine.DSPType) error {
	sys, err := c.system()
	if err != nil {
		return err
	}
	if *slot != nil {
		return nil
	}

	d, err := sys.CreateDSPByType(typ)
	if err != nil {
		return fmt.Errorf("creating effect: %w", err)
	}
	*slot = d

	if c.channel != nil && c.channel.IsPlaying() {
		if err := c.channel.AddDSP(len(c.chain()), d); err != nil {
			return fmt.Errorf("attaching %s: %w", d.Descriptor().Name, err)
		}
	}

	c.log.Info("effect created", "dsp", d.ID(), "name", d.Descriptor().Name)
	return nil
}

// chain lists the effects attached on play, head first.
func (c *Controller) chain() []*engine.DSP {
	chain := []*engine.DSP{c.filter}
	if c.lowpass != nil {
		chain = append(chain, c.lowpass)
	}
	if c.flange != nil {
		chain = append(chain, c.flange)
	}
	return chain
}

// SetLowPass sets the low-pass cutoff in Hz.
func (c *Controller) SetLowPass(hz float32) error {
	if _, err := c.system(); err != nil {
		return err
	}
	if c.lowpass == nil {
		return ErrNoLowPass
	}
	if err := c.lowpass.SetParameterFloat(effect.LowpassParamCutoff, hz); err != nil {
		return fmt.Errorf("setting cutoff: %w", err)
	}
	return nil
}

// LowPass returns the cutoff in Hz.
func (c *Controller) LowPass() (float32, error) {
	if _, err := c.system(); err != nil {
		return 0, err
	}
	if c.lowpass == nil {
		return 0, ErrNoLowPass
	}
	v, _, err := c.lowpass.ParameterFloat(effect.LowpassParamCutoff)
	return v, err
}

// SetFlangeDepth sets the flange depth within [0, 1].
func (c *Controller) SetFlangeDepth(depth float32) error {
	if _, err := c.system(); err != nil {
		return err
	}
	if c.flange == nil {
		return ErrNoFlange
	}
	if err := c.flange.SetParameterFloat(effect.FlangeParamDepth, depth); err != nil {
		return fmt.Errorf("setting flange depth: %w", err)
	}
	return nil
}

// FlangeDepth returns the flange depth.
func (c *Controller) FlangeDepth() (float32, error) {
	if _, err := c.system(); err != nil {
		return 0, err
	}
	if c.flange == nil {
		return 0, ErrNoFlange
	}
	v, _, err := c.flange.ParameterFloat(effect.FlangeParamDepth)
	return v, err
}
