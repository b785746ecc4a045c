// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
)

// estimateLag is how far (seconds) the mock estimate trails the truth.
const estimateLag = 0.25

// Mock stands in for the sensor board: it emits one well-formed record
// per interval, with a smoothly changing ground truth and an estimate that
// lags behind it and drifts in yaw.
type Mock struct {
	interval time.Duration

	mu     sync.Mutex
	start  time.Time
	ticker *time.Ticker
	done   chan struct{}
}

func NewMock(interval time.Duration) *Mock {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &Mock{interval: interval}
}

func (m *Mock) String() string { return "mock board" }

func (m *Mock) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticker != nil {
		return nil
	}
	m.start = time.Now()
	m.ticker = time.NewTicker(m.interval)
	m.done = make(chan struct{})
	return nil
}

// ReadLine waits for the next tick and returns the record for the time
// elapsed since Open.
func (m *Mock) ReadLine() ([]byte, error) {
	m.mu.Lock()
	ticker, done, start := m.ticker, m.done, m.start
	m.mu.Unlock()

	if ticker == nil {
		return nil, ErrNotOpen
	}
	select {
	case now := <-ticker.C:
		return json.Marshal(MockFrame(now.Sub(start).Seconds()))
	case <-done:
		return nil, ErrNotOpen
	}
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticker == nil {
		return nil
	}
	m.ticker.Stop()
	close(m.done)
	m.ticker, m.done = nil, nil
	return nil
}

// MockFrame returns the mock record at t seconds.
func MockFrame(t float64) orientation.FrameRecord {
	truth := mockPose(t)
	est := mockPose(t - estimateLag)
	est.Yaw += 3 * math.Sin(t*0.1)

	return orientation.FrameRecord{
		GroundTruth: orientation.FromPose(truth),
		Estimated:   orientation.FromPose(est),
	}
}

func mockPose(t float64) orientation.Pose {
	return orientation.Pose{
		Roll:  20 * math.Sin(t),
		Pitch: 15 * math.Cos(t*0.7),
		Yaw:   math.Mod(t*30, 360),
	}
}
