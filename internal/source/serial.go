// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// Serial reads records from the sensor board's USB serial port.
type Serial struct {
	opts serial.OpenOptions

	mu     sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// NewSerial configures an 8N1 port with blocking reads. Nothing is opened
// until Open.
func NewSerial(portName string, baud int) *Serial {
	return &Serial{
		opts: serial.OpenOptions{
			PortName:              portName,
			BaudRate:              uint(baud),
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: 0,
		},
	}
}

// String names the port for error messages.
func (s *Serial) String() string {
	return fmt.Sprintf("serial port %s", s.opts.PortName)
}

// Open opens the port. Opening an already open port is a no-op.
func (s *Serial) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}
	port, err := serial.Open(s.opts)
	if err != nil {
		return err
	}
	s.port = port
	s.reader = bufio.NewReader(port)
	return nil
}

// ReadLine blocks until the board sends a full line.
func (s *Serial) ReadLine() ([]byte, error) {
	s.mu.Lock()
	r := s.reader
	s.mu.Unlock()

	if r == nil {
		return nil, ErrNotOpen
	}
	return readLine(r)
}

// Close releases the port; a blocked ReadLine returns with an error.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.reader = nil
	return err
}
