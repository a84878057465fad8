// SPDX-License-Identifier: EPL-2.0

package controller

import "errors"

var (
	// ErrEngineInit is fatal: the engine could not be created or started,
	// or the filter node could not be registered.
	ErrEngineInit = errors.New("audio engine initialization failed")
	// ErrResourceLoad means a sound file is missing or undecodable.
	ErrResourceLoad = errors.New("audio resource could not be loaded")
	// ErrNotInitialized is returned before Initialize succeeds and after Close.
	ErrNotInitialized = errors.New("controller not initialized")
	// ErrNothingLoaded is returned by Play* when the slot is empty.
	ErrNothingLoaded = errors.New("no sound loaded")
	// ErrNoLowPass and ErrNoFlange are returned when adjusting an effect
	// that was never created.
	ErrNoLowPass = errors.New("low-pass effect not created")
	ErrNoFlange  = errors.New("flange effect not created")
)
