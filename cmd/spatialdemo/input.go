// SPDX-License-Identifier: EPL-2.0

package main

import "bytes"

// Command is one user action.
type Command int

const (
	CmdNone Command = iota
	CmdPlayOneShot
	CmdPlaySpatial
	CmdPlayStream
	CmdToggleBypass
	CmdParamUp
	CmdParamDown
	CmdCutoffDown
	CmdCutoffUp
	CmdDepthDown
	CmdDepthUp
	CmdSwitchActor
	CmdForward
	CmdBack
	CmdLeft
	CmdRight
	CmdQuit
)

var commandNames = [...]string{
	CmdNone:         "none",
	CmdPlayOneShot:  "play one-shot",
	CmdPlaySpatial:  "play spatial",
	CmdPlayStream:   "play stream",
	CmdToggleBypass: "toggle bypass",
	CmdParamUp:      "parameter up",
	CmdParamDown:    "parameter down",
	CmdCutoffDown:   "cutoff down",
	CmdCutoffUp:     "cutoff up",
	CmdDepthDown:    "depth down",
	CmdDepthUp:      "depth up",
	CmdSwitchActor:  "switch actor",
	CmdForward:      "forward",
	CmdBack:         "back",
	CmdLeft:         "left",
	CmdRight:        "right",
	CmdQuit:         "quit",
}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c]
}

// escape sequences sent by terminals in raw mode
var sequences = []struct {
	seq []byte
	cmd Command
}{
	{[]byte("\x1b[A"), CmdForward},
	{[]byte("\x1b[B"), CmdBack},
	{[]byte("\x1b[C"), CmdRight},
	{[]byte("\x1b[D"), CmdLeft},
	{[]byte("\x1bOP"), CmdPlayOneShot},
	{[]byte("\x1b[11~"), CmdPlayOneShot},
}

var keys = map[byte]Command{
	'1': CmdPlayOneShot,
	'p': CmdPlaySpatial,
	's': CmdPlayStream,
	'b': CmdToggleBypass,
	'm': CmdParamUp,
	'n': CmdParamDown,
	'2': CmdCutoffDown,
	'3': CmdCutoffUp,
	'4': CmdDepthDown,
	'5': CmdDepthUp,
	'x': CmdSwitchActor,
	'q': CmdQuit,
	0x03: CmdQuit, // Ctrl-C, raw mode swallows SIGINT
}

// ParseKeys turns one read from a raw terminal into commands. Unknown keys
// are dropped; a lone Esc quits.
func ParseKeys(b []byte) []Command {
	var cmds []Command
	for len(b) > 0 {
		if b[0] == 0x1b {
			matched := false
			for _, s := range sequences {
				if bytes.HasPrefix(b, s.seq) {
					cmds = append(cmds, s.cmd)
					b = b[len(s.seq):]
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if len(b) == 1 {
				cmds = append(cmds, CmdQuit)
				break
			}
			// an unknown sequence: drop the rest of this read
			break
		}

		k := b[0]
		if k >= 'A' && k <= 'Z' {
			k += 'a' - 'A'
		}
		if cmd, ok := keys[k]; ok {
			cmds = append(cmds, cmd)
		}
		b = b[1:]
	}
	return cmds
}
