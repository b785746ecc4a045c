// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package source provides the transports that deliver raw record lines:
// the sensor board's serial port, any io.Reader, an MQTT topic and a mock
// board for running without hardware.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/quat_visualizer/internal/config"
)

// ErrNotOpen is returned by ReadLine before Open or after Close.
var ErrNotOpen = errors.New("source: transport not open")

// LineSource yields one raw record line per call, blocking until a full
// line is available. The bytes are not interpreted.
type LineSource interface {
	ReadLine() ([]byte, error)
}

// Transport is a LineSource that has to be opened first. Close may be
// called from another goroutine to unblock a pending ReadLine.
type Transport interface {
	LineSource
	Open() error
	Close() error
}

// New builds the transport selected by cfg.Source.
func New(cfg *config.Config, log zerolog.Logger) (Transport, error) {
	switch cfg.Source {
	case config.SourceSerial:
		return NewSerial(cfg.SerialPort, cfg.SerialBaudRate), nil
	case config.SourceStdin:
		return NewReader("stdin", os.Stdin), nil
	case config.SourceMQTT:
		return NewMQTT(cfg.MQTTBroker, cfg.TopicFrames, cfg.MQTTClientIDViewer, log), nil
	case config.SourceMock:
		return NewMock(time.Duration(cfg.MockInterval) * time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// readLine reads up to and including '\n' and strips the line ending. A
// final line without terminator is returned before io.EOF.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return trimEOL(line), nil
		}
		return nil, err
	}
	return trimEOL(line), nil
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
