// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"fmt"
)

// LumpError is the failure of a single lump. The lump's collection in the
// Map is left empty.
type LumpError struct {
	Index int
	Kind  LumpKind
	Err   error
}

func (e *LumpError) Error() string {
	return fmt.Sprintf("lump %d (%v): %v", e.Index, e.Kind, e.Err)
}

func (e *LumpError) Unwrap() error {
	return e.Err
}
