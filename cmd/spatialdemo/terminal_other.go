// SPDX-License-Identifier: EPL-2.0

//go:build !unix

package main

import "context"

// Raw key input is only wired up for unix terminals; elsewhere the demo
// runs the scripted orbit.
const rawInput = false

func readKeys(ctx context.Context, _ chan<- Command) error {
	<-ctx.Done()
	return nil
}
