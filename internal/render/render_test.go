// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"encoding/json"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRecorder_CapturesFrame(t *testing.T) {
	r := NewRecorder()
	var hooked []Scene
	r.OnPresent = func(s Scene) { hooked = append(hooked, s) }

	r.Clear()
	r.SetTitle("Ground Truth Orientation")
	r.Line(r3.Vec{}, r3.Vec{X: 1}, color.Black)
	r.Text(r3.Vec{X: 1}, "X_loc")
	r.SetLimits(AxisZ, -1, 1)
	r.SetLimits(Axis(7), -5, 5)
	r.HideTickLabels()
	r.SetAxisLabels("X global frame", "Y global frame", "Z global frame")

	assert.Equal(t, 0, r.Frames())
	assert.Empty(t, r.Last().Title, "nothing is visible before Present")

	require.NoError(t, r.Present())
	got := r.Last()

	assert.Equal(t, 1, r.Frames())
	assert.Equal(t, "Ground Truth Orientation", got.Title)
	assert.Equal(t, []Segment{{From: Point{}, To: Point{X: 1}, Color: "#000000"}}, got.Segments)
	assert.Equal(t, []Label{{At: Point{X: 1}, Text: "X_loc"}}, got.Labels)
	assert.Equal(t, Limits{Min: -1, Max: 1}, got.Limits[AxisZ])
	assert.Equal(t, Limits{}, got.Limits[AxisX])
	assert.False(t, got.TickLabels)
	assert.Equal(t, [3]string{"X global frame", "Y global frame", "Z global frame"}, got.AxisLabels)
	require.Len(t, hooked, 1)
	assert.Equal(t, got, hooked[0])

	// the next frame starts empty and does not disturb the presented one
	r.Clear()
	r.Line(r3.Vec{}, r3.Vec{Y: 1}, color.White)
	assert.Len(t, r.Last().Segments, 1)
	assert.True(t, NewRecorder().Last().TickLabels)
}

func TestCoord_JSON(t *testing.T) {
	b, err := json.Marshal(Point{X: Coord(math.NaN()), Y: Coord(math.Copysign(0, -1)), Z: 0.25})
	require.NoError(t, err)
	assert.Equal(t, `{"x":null,"y":0,"z":0.25}`, string(b))

	b, err = json.Marshal(Point{X: Coord(math.Inf(1)), Y: -1, Z: 1e-17})
	require.NoError(t, err)
	assert.Equal(t, `{"x":null,"y":-1,"z":1e-17}`, string(b))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#000000", Hex(color.Black))
	assert.Equal(t, "#1f77b4", Hex(color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}))
	assert.Equal(t, "#000000", Hex(nil))
}

type failingSurface struct {
	*Recorder
	err error
}

func (f failingSurface) Present() error {
	_ = f.Recorder.Present()
	return f.err
}

func TestTee(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	tee := Tee{a, b}

	tee.Clear()
	tee.SetTitle("t")
	tee.Line(r3.Vec{}, r3.Vec{Z: 1}, color.Black)
	tee.Text(r3.Vec{Z: 1}, "Z_loc")
	tee.SetLimits(AxisX, -1, 1)
	tee.HideTickLabels()
	tee.SetAxisLabels("x", "y", "z")
	require.NoError(t, tee.Present())

	assert.Equal(t, a.Last(), b.Last())
	assert.Equal(t, "t", b.Last().Title)

	boom := errors.New("display unplugged")
	c := NewRecorder()
	tee = Tee{failingSurface{Recorder: a, err: boom}, c}
	err := tee.Present()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.Frames(), "later surfaces still present")
}

func TestAxis_String(t *testing.T) {
	assert.Equal(t, "x", AxisX.String())
	assert.Equal(t, "z", AxisZ.String())
	assert.Equal(t, "axis(9)", Axis(9).String())
}
