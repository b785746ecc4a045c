// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/relabs-tech/quat_visualizer/internal/pipeline"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// instruments uses the global OTel meter (no-op if not configured).
type instruments struct {
	rendered metric.Int64Counter
	skipped  metric.Int64Counter
	angle    metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	m := meter()

	rendered, err := m.Int64Counter(
		"quatviz.frames.rendered",
		metric.WithDescription("Frames drawn on both viewports"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rendered counter: %w", err)
	}

	skipped, err := m.Int64Counter(
		"quatviz.records.skipped",
		metric.WithDescription("Lines dropped because they could not be decoded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	angle, err := m.Float64Histogram(
		"quatviz.estimate.error",
		metric.WithDescription("Angle between ground truth and estimated orientation"),
		metric.WithUnit("deg"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating estimate error histogram: %w", err)
	}

	return &instruments{rendered: rendered, skipped: skipped, angle: angle}, nil
}

func (i *instruments) frame(ctx context.Context, angle float64) {
	i.rendered.Add(ctx, 1)
	if !math.IsNaN(angle) {
		i.angle.Record(ctx, angle)
	}
}

func (i *instruments) skip(ctx context.Context, kind string) {
	i.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
