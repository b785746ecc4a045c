// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/quat_visualizer/internal/geometry"
	"github.com/relabs-tech/quat_visualizer/internal/render"
)

const (
	TitleGroundTruth = "Ground Truth Orientation"
	TitleEstimated   = "Estimated Orientation"
)

// Colours of the rectangle and of the local X, Y, Z axes.
var (
	ColorRectangle color.Color = color.Black
	ColorAxes                  = [3]color.Color{
		color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
		color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	}
)

// drawViewport paints one rotated shape and presents it.
func drawViewport(s render.Surface, shape geometry.Shape, title string) error {
	s.Clear()

	for _, e := range shape.Edges() {
		s.Line(e.From, e.To, ColorRectangle)
	}
	for i, a := range shape.Axes() {
		s.Line(r3.Vec{}, a.Tip, ColorAxes[i])
		s.Text(a.Tip, a.Label)
	}

	s.SetLimits(render.AxisX, -1, 1)
	s.SetLimits(render.AxisY, -1, 1)
	s.SetLimits(render.AxisZ, -1, 1)
	s.HideTickLabels()
	s.SetAxisLabels("X global frame", "Y global frame", "Z global frame")
	s.SetTitle(title)

	return s.Present()
}
