// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
	"github.com/relabs-tech/quat_visualizer/internal/record"
	"github.com/relabs-tech/quat_visualizer/internal/render"
	"github.com/relabs-tech/quat_visualizer/internal/source"
)

const identityLine = `{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`

type step struct {
	line string
	err  error
}

// fakeTransport replays steps, then blocks until closed.
type fakeTransport struct {
	openErr error
	steps   []step

	mu     sync.Mutex
	next   int
	opened bool
	closed chan struct{}
	closes int
}

func newFakeTransport(steps ...step) *fakeTransport {
	return &fakeTransport{steps: steps, closed: make(chan struct{})}
}

func (f *fakeTransport) String() string { return "fake board" }

func (f *fakeTransport) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	f.opened = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) ReadLine() ([]byte, error) {
	f.mu.Lock()
	if f.next < len(f.steps) {
		s := f.steps[f.next]
		f.next++
		f.mu.Unlock()
		if s.err != nil {
			return nil, s.err
		}
		return []byte(s.line), nil
	}
	f.mu.Unlock()

	<-f.closed
	return nil, source.ErrNotOpen
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes == 0 {
		close(f.closed)
	}
	f.closes++
	return nil
}

func (f *fakeTransport) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes > 0
}

func newTestLoop(t *testing.T, opts ...Option) (*Loop, *render.Recorder, *render.Recorder) {
	t.Helper()
	gt, est := render.NewRecorder(), render.NewRecorder()
	l, err := New(gt, est, opts...)
	require.NoError(t, err)
	return l, gt, est
}

func TestRun_SkipsUndecodableLine(t *testing.T) {
	l, gt, est := newTestLoop(t)
	tr := newFakeTransport(
		step{line: "not valid json"},
		step{line: identityLine},
		step{err: io.EOF},
	)

	err := l.Run(context.Background(), tr)

	var readErr *TransportReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, gt.Frames())
	assert.Equal(t, 1, est.Frames())

	stats := l.Stats()
	assert.Equal(t, uint64(1), stats.Frames)
	assert.Equal(t, uint64(1), stats.Skipped())
	assert.Equal(t, uint64(1), stats.SkippedByKind[record.KindSyntax])
	assert.Contains(t, stats.LastSkipReason, "syntax")
}

func TestRun_StopsOnSecondReadFailure(t *testing.T) {
	l, gt, est := newTestLoop(t)
	boom := errors.New("device reports readiness to read but returned no data")
	tr := newFakeTransport(step{line: identityLine}, step{err: boom})

	err := l.Run(context.Background(), tr)

	var readErr *TransportReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, gt.Frames())
	assert.Equal(t, 1, est.Frames())
	assert.Equal(t, Idle, l.State())
	assert.True(t, tr.wasClosed())
}

func TestRun_OpenFailure(t *testing.T) {
	l, gt, _ := newTestLoop(t)
	tr := newFakeTransport()
	tr.openErr = errors.New("no such file or directory")

	err := l.Run(context.Background(), tr)

	var openErr *TransportOpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "fake board", openErr.Source)
	assert.Equal(t, "could not open fake board: no such file or directory", err.Error())
	assert.Equal(t, Idle, l.State())
	assert.Equal(t, 0, gt.Frames())
	assert.False(t, tr.wasClosed())
}

func TestRun_EveryDecodeKindIsSkipped(t *testing.T) {
	l, gt, _ := newTestLoop(t)
	tr := newFakeTransport(
		step{line: "\xff\xfe"},
		step{line: `{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1}}`},
		step{line: ""},
		step{line: identityLine},
		step{line: identityLine},
		step{err: io.ErrUnexpectedEOF},
	)

	err := l.Run(context.Background(), tr)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	stats := l.Stats()
	assert.Equal(t, 2, gt.Frames())
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(1), stats.SkippedByKind[record.KindEncoding])
	assert.Equal(t, uint64(1), stats.SkippedByKind[record.KindMissingField])
	assert.Equal(t, uint64(1), stats.SkippedByKind[record.KindSyntax])
}

func TestRun_CancelUnblocksRead(t *testing.T) {
	l, gt, _ := newTestLoop(t)
	tr := newFakeTransport(step{line: identityLine})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx, tr) }()

	require.Eventually(t, func() bool { return gt.Frames() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, Running, l.State())
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, tr.wasClosed())
	assert.Equal(t, Idle, l.State())
}

type brokenSurface struct {
	*render.Recorder
	err error
}

func (b brokenSurface) Present() error { return b.err }

func TestRun_PresentFailureIsFatal(t *testing.T) {
	gone := errors.New("window closed")
	l, err := New(render.NewRecorder(), brokenSurface{Recorder: render.NewRecorder(), err: gone})
	require.NoError(t, err)

	err = l.Run(context.Background(), newFakeTransport(step{line: identityLine}, step{line: identityLine}))

	require.ErrorIs(t, err, gone)
	var readErr *TransportReadError
	assert.False(t, errors.As(err, &readErr))
	assert.Contains(t, err.Error(), TitleEstimated)
	assert.Equal(t, uint64(0), l.Stats().Frames)
}

func TestRun_ObserversSeeEachFrame(t *testing.T) {
	var got []orientation.FrameRecord
	var l *Loop
	l, _, _ = newTestLoop(t, WithObserver(ObserverFunc(func(rec orientation.FrameRecord) {
		assert.Equal(t, Running, l.State())
		got = append(got, rec)
	})))

	quarter := `{"ground_truth_quat":{"x":0,"y":0,"z":0.7071067811865476,"w":0.7071067811865476},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`
	_ = l.Run(context.Background(), newFakeTransport(
		step{line: identityLine},
		step{line: "garbage"},
		step{line: quarter},
		step{err: io.EOF},
	))

	require.Len(t, got, 2)
	assert.Equal(t, orientation.Identity, got[0].Estimated)
	assert.InDelta(t, 0.7071067811865476, got[1].GroundTruth.Z, 1e-12)
}

func TestRun_PreDrawRunsBeforePresent(t *testing.T) {
	var l *Loop
	var gt *render.Recorder
	var seenFrames []int
	l, gt, _ = newTestLoop(t, WithPreDraw(ObserverFunc(func(rec orientation.FrameRecord) {
		seenFrames = append(seenFrames, gt.Frames())
	})))

	_ = l.Run(context.Background(), newFakeTransport(
		step{line: identityLine},
		step{line: "garbage"},
		step{line: identityLine},
		step{err: io.EOF},
	))

	// called once per decoded record, each time before that record's Present
	assert.Equal(t, []int{0, 1}, seenFrames)
	assert.Equal(t, 2, gt.Frames())
}

func TestRun_IdentityScene(t *testing.T) {
	l, gt, est := newTestLoop(t)
	_ = l.Run(context.Background(), newFakeTransport(step{line: identityLine}, step{err: io.EOF}))

	b, err := json.MarshalIndent(gt.Last(), "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "identity_ground_truth", append(b, '\n'))

	// both viewports draw the same thing apart from the title
	want := gt.Last()
	want.Title = TitleEstimated
	assert.Equal(t, want, est.Last())
}

func TestRun_ZeroQuaternionStillDraws(t *testing.T) {
	l, gt, _ := newTestLoop(t)
	zero := `{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":0},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`

	err := l.Run(context.Background(), newFakeTransport(step{line: zero}, step{err: io.EOF}))
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, gt.Frames())

	_, err = json.Marshal(gt.Last())
	assert.NoError(t, err, "NaN coordinates still serialize")
}

func TestConsole_RateLimit(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 100*time.Millisecond)
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	rec := orientation.FrameRecord{
		GroundTruth: orientation.FromPose(orientation.Pose{Roll: 10}),
		Estimated:   orientation.Identity,
	}

	c.OnFrame(rec)
	now = now.Add(50 * time.Millisecond)
	c.OnFrame(rec)
	now = now.Add(60 * time.Millisecond)
	c.OnFrame(rec)

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("[TRUTH]")))
	assert.Contains(t, out, "ROLL=  10.00")
	assert.Contains(t, out, "ERR= 10.00°")
}
