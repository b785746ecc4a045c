// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
)

// Console prints the Euler readout of both orientations, at most once per
// interval.
type Console struct {
	out      io.Writer
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewConsole(out io.Writer, interval time.Duration) *Console {
	return &Console{out: out, interval: interval, now: time.Now}
}

func (c *Console) OnFrame(rec orientation.FrameRecord) {
	now := c.now()

	c.mu.Lock()
	if !c.last.IsZero() && now.Sub(c.last) < c.interval {
		c.mu.Unlock()
		return
	}
	c.last = now
	c.mu.Unlock()

	WriteReadout(c.out, rec)
}

// WriteReadout writes the two-line Euler readout of rec.
func WriteReadout(w io.Writer, rec orientation.FrameRecord) {
	truth := rec.GroundTruth.Pose()
	est := rec.Estimated.Pose()

	fmt.Fprintf(w,
		"[TRUTH] ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f\n",
		truth.Roll, truth.Pitch, truth.Yaw,
	)
	fmt.Fprintf(w,
		"[EST]   ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  ERR=%6.2f°\n",
		est.Roll, est.Pitch, est.Yaw, orientation.AngleBetween(rec.GroundTruth, rec.Estimated),
	)
}
