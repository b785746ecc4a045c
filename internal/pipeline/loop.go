// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline runs the read → decode → rotate → draw loop that turns
// record lines into the two orientation viewports.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/quat_visualizer/internal/geometry"
	"github.com/relabs-tech/quat_visualizer/internal/orientation"
	"github.com/relabs-tech/quat_visualizer/internal/record"
	"github.com/relabs-tech/quat_visualizer/internal/render"
	"github.com/relabs-tech/quat_visualizer/internal/source"
)

// State of a Loop.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Stats counts what the loop did since it was created.
type Stats struct {
	Frames         uint64
	SkippedByKind  map[record.Kind]uint64
	LastSkipReason string
}

// Skipped is the total number of dropped lines.
func (s Stats) Skipped() uint64 {
	var n uint64
	for _, c := range s.SkippedByKind {
		n += c
	}
	return n
}

// Observer is told about every frame that was drawn.
type Observer interface {
	OnFrame(rec orientation.FrameRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec orientation.FrameRecord)

func (f ObserverFunc) OnFrame(rec orientation.FrameRecord) { f(rec) }

// Option configures a Loop.
type Option func(*Loop)

func WithLogger(log zerolog.Logger) Option {
	return func(l *Loop) { l.log = log.With().Str("component", "pipeline").Logger() }
}

func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observers = append(l.observers, o) }
}

// WithPreDraw registers o to see each decoded record before its viewports
// are drawn, for surfaces that render a readout of the same frame.
func WithPreDraw(o Observer) Option {
	return func(l *Loop) { l.preDraw = append(l.preDraw, o) }
}

// Loop draws every decoded record on the ground truth and estimate
// viewports. A Loop runs one transport at a time.
type Loop struct {
	groundTruth render.Surface
	estimated   render.Surface
	log         zerolog.Logger
	observers   []Observer
	preDraw     []Observer
	metrics     *instruments

	mu    sync.Mutex
	state State
	stats Stats
}

func New(groundTruth, estimated render.Surface, opts ...Option) (*Loop, error) {
	m, err := newInstruments()
	if err != nil {
		return nil, err
	}
	l := &Loop{
		groundTruth: groundTruth,
		estimated:   estimated,
		log:         zerolog.Nop(),
		metrics:     m,
		stats:       Stats{SkippedByKind: map[record.Kind]uint64{}},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stats returns a snapshot of the counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stats
	s.SkippedByKind = make(map[record.Kind]uint64, len(l.stats.SkippedByKind))
	for k, v := range l.stats.SkippedByKind {
		s.SkippedByKind[k] = v
	}
	return s
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Run opens t and processes lines until a read or present fails or ctx is
// cancelled. Cancelling ctx closes t, which unblocks a pending read; Run
// then returns ctx.Err(). Decode failures only drop the line.
func (l *Loop) Run(ctx context.Context, t source.Transport) error {
	if err := t.Open(); err != nil {
		return &TransportOpenError{Source: describe(t), Err: err}
	}
	defer t.Close()

	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	l.setState(Running)
	defer l.setState(Idle)
	l.log.Info().Str("source", describe(t)).Msg("pipeline: running")

	reference := geometry.Reference()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := t.ReadLine()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &TransportReadError{Err: err}
		}

		rec, err := record.Decode(line)
		if err != nil {
			l.skip(ctx, err, line)
			continue
		}

		for _, o := range l.preDraw {
			o.OnFrame(rec)
		}

		gt := geometry.Rotate(reference, rec.GroundTruth)
		est := geometry.Rotate(reference, rec.Estimated)

		if err := drawViewport(l.groundTruth, gt, TitleGroundTruth); err != nil {
			return fmt.Errorf("present %q: %w", TitleGroundTruth, err)
		}
		if err := drawViewport(l.estimated, est, TitleEstimated); err != nil {
			return fmt.Errorf("present %q: %w", TitleEstimated, err)
		}

		l.mu.Lock()
		l.stats.Frames++
		l.mu.Unlock()
		l.metrics.frame(ctx, orientation.AngleBetween(rec.GroundTruth, rec.Estimated))

		for _, o := range l.observers {
			o.OnFrame(rec)
		}
	}
}

func (l *Loop) skip(ctx context.Context, err error, line []byte) {
	kind := record.KindOf(err)

	l.mu.Lock()
	l.stats.SkippedByKind[kind]++
	l.stats.LastSkipReason = err.Error()
	l.mu.Unlock()

	l.metrics.skip(ctx, kind.String())
	l.log.Debug().Err(err).Str("kind", kind.String()).Int("bytes", len(line)).Msg("pipeline: record skipped")
}

func describe(t source.Transport) string {
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return "transport"
}
