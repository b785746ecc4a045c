// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"io"
	"sync"
)

// Reader adapts an io.Reader (stdin, a captured log file) to a Transport.
type Reader struct {
	name string
	src  io.Reader

	mu     sync.Mutex
	reader *bufio.Reader
}

func NewReader(name string, r io.Reader) *Reader {
	return &Reader{name: name, src: r}
}

func (r *Reader) String() string { return r.name }

func (r *Reader) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reader == nil {
		r.reader = bufio.NewReader(r.src)
	}
	return nil
}

func (r *Reader) ReadLine() ([]byte, error) {
	r.mu.Lock()
	br := r.reader
	r.mu.Unlock()

	if br == nil {
		return nil, ErrNotOpen
	}
	return readLine(br)
}

// Close closes the underlying reader if it is an io.Closer.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reader == nil {
		return nil
	}
	r.reader = nil
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
