// SPDX-License-Identifier: EPL-2.0

package effect

import "errors"

var (
	ErrAllocation       = errors.New("effect state allocation failed")
	ErrInvalidParameter = errors.New("invalid parameter index")
	ErrNotCreated       = errors.New("effect node used before Create")
	ErrUnknownPreset    = errors.New("unknown filter preset")
)
