// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geometry holds the reference marker drawn for each orientation:
// a flat 1x1 rectangle in the local XY plane plus the three local unit axes.
package geometry

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
)

// PointName identifies one of the marker points.
type PointName int

const (
	TopRight PointName = iota
	TopLeft
	BottomRight
	BottomLeft
	LocalX
	LocalY
	LocalZ

	numPoints
)

var pointNames = [numPoints]string{
	TopRight:    "top_right",
	TopLeft:     "top_left",
	BottomRight: "bottom_right",
	BottomLeft:  "bottom_left",
	LocalX:      "local_x",
	LocalY:      "local_y",
	LocalZ:      "local_z",
}

func (n PointName) String() string {
	if n < 0 || n >= numPoints {
		return "unknown"
	}
	return pointNames[n]
}

// Names lists every point in storage order.
func Names() []PointName {
	names := make([]PointName, numPoints)
	for i := range names {
		names[i] = PointName(i)
	}
	return names
}

// Shape is a set of named points. Points live in a fixed-size array, so a
// Shape assigned or passed by value never shares storage with another.
type Shape struct {
	points [numPoints]r3.Vec
}

// reference is never handed out directly; Reference returns a copy.
var reference = Shape{points: [numPoints]r3.Vec{
	TopRight:    {X: 0.5, Y: 0.5, Z: 0},
	TopLeft:     {X: -0.5, Y: 0.5, Z: 0},
	BottomRight: {X: 0.5, Y: -0.5, Z: 0},
	BottomLeft:  {X: -0.5, Y: -0.5, Z: 0},
	LocalX:      {X: 1, Y: 0, Z: 0},
	LocalY:      {X: 0, Y: 1, Z: 0},
	LocalZ:      {X: 0, Y: 0, Z: 1},
}}

// Reference returns the un-rotated marker.
func Reference() Shape {
	return reference
}

// Point returns the coordinates of the named point.
func (s Shape) Point(name PointName) r3.Vec {
	return s.points[name]
}

// Edge is one side of the rectangle.
type Edge struct {
	From, To r3.Vec
}

// Edges returns the rectangle outline in drawing order:
// top right → top left → bottom left → bottom right → top right.
func (s Shape) Edges() [4]Edge {
	p := s.points
	return [4]Edge{
		{From: p[TopRight], To: p[TopLeft]},
		{From: p[TopLeft], To: p[BottomLeft]},
		{From: p[BottomLeft], To: p[BottomRight]},
		{From: p[BottomRight], To: p[TopRight]},
	}
}

// Axis is one local frame axis, drawn from the origin to Tip.
type Axis struct {
	Label string
	Tip   r3.Vec
}

// Axes returns the local X, Y and Z axes.
func (s Shape) Axes() [3]Axis {
	return [3]Axis{
		{Label: "X_loc", Tip: s.points[LocalX]},
		{Label: "Y_loc", Tip: s.points[LocalY]},
		{Label: "Z_loc", Tip: s.points[LocalZ]},
	}
}

// Rotate applies the active rotation q·p·q⁻¹ to every point of shape and
// returns the result as a new Shape; shape itself is not modified.
//
// q is used as given, without normalization. The zero quaternion has no
// inverse and yields NaN points.
func Rotate(shape Shape, q orientation.Quaternion) Shape {
	qn := q.Number()
	inv := quat.Inv(qn)

	var out Shape
	for i, p := range shape.points {
		pure := quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}
		r := quat.Mul(quat.Mul(qn, pure), inv)
		out.points[i] = r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
	}
	return out
}
