// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render defines the drawing surface the pipeline paints each
// viewport on, plus backend-neutral helpers: a Recorder that captures a
// frame as a Scene and a Tee that fans one viewport out to several
// surfaces.
package render

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
)

// Axis selects one of the three plot axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Surface is one 3D viewport. Calls between Clear and Present build a
// frame; Present shows it. A Present error means the surface is gone.
type Surface interface {
	Clear()
	Line(from, to r3.Vec, c color.Color)
	Text(at r3.Vec, label string)
	SetLimits(axis Axis, min, max float64)
	HideTickLabels()
	SetAxisLabels(x, y, z string)
	SetTitle(title string)
	Present() error
}

// Tee forwards every call to all of its surfaces.
type Tee []Surface

func (t Tee) Clear() {
	for _, s := range t {
		s.Clear()
	}
}

func (t Tee) Line(from, to r3.Vec, c color.Color) {
	for _, s := range t {
		s.Line(from, to, c)
	}
}

func (t Tee) Text(at r3.Vec, label string) {
	for _, s := range t {
		s.Text(at, label)
	}
}

func (t Tee) SetLimits(axis Axis, min, max float64) {
	for _, s := range t {
		s.SetLimits(axis, min, max)
	}
}

func (t Tee) HideTickLabels() {
	for _, s := range t {
		s.HideTickLabels()
	}
}

func (t Tee) SetAxisLabels(x, y, z string) {
	for _, s := range t {
		s.SetAxisLabels(x, y, z)
	}
}

func (t Tee) SetTitle(title string) {
	for _, s := range t {
		s.SetTitle(title)
	}
}

// Present presents on every surface, even after one fails, and joins the
// errors.
func (t Tee) Present() error {
	var errs []error
	for _, s := range t {
		if err := s.Present(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hex formats c as #rrggbb.
func Hex(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", nc.R, nc.G, nc.B)
}
