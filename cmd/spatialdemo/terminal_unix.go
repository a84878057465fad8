// SPDX-License-Identifier: EPL-2.0

//go:build unix

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

const rawInput = true

// readKeys puts stdin in raw non-blocking mode and forwards key commands
// until ctx is done or stdin closes. The terminal is restored on return.
func readKeys(ctx context.Context, out chan<- Command) error {
	fd := int(os.Stdin.Fd())

	old, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, old) }()

	if err := syscall.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("setting nonblocking stdin: %w", err)
	}
	defer func() { _ = syscall.SetNonblock(fd, false) }()

	buf := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := syscall.Read(fd, buf)
		if n > 0 {
			for _, cmd := range ParseKeys(buf[:n]) {
				select {
				case out <- cmd:
				case <-ctx.Done():
					return nil
				}
			}
		}
		switch {
		case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EINTR):
			time.Sleep(5 * time.Millisecond)
		case err != nil:
			return fmt.Errorf("reading keys: %w", err)
		case n == 0:
			return nil
		}
	}
}
