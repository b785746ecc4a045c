// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import "fmt"

// TransportOpenError means the transport could not be opened; the loop
// never started.
type TransportOpenError struct {
	Source string
	Err    error
}

func (e *TransportOpenError) Error() string {
	return fmt.Sprintf("could not open %s: %v", e.Source, e.Err)
}

func (e *TransportOpenError) Unwrap() error { return e.Err }

// TransportReadError means a read failed while running. It is fatal: the
// loop does not retry.
type TransportReadError struct {
	Err error
}

func (e *TransportReadError) Error() string {
	return fmt.Sprintf("transport read failed: %v", e.Err)
}

func (e *TransportReadError) Unwrap() error { return e.Err }
