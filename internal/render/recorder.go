// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"image/color"
	"math"
	"strconv"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Coord is one coordinate. It marshals non-finite values as null, since a
// degenerate quaternion gives NaN points, and -0 as 0.
type Coord float64

func (c Coord) MarshalJSON() ([]byte, error) {
	v := float64(c)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	if v == 0 {
		v = 0
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Point is a JSON-friendly r3.Vec.
type Point struct {
	X Coord `json:"x"`
	Y Coord `json:"y"`
	Z Coord `json:"z"`
}

func PointOf(v r3.Vec) Point {
	return Point{X: Coord(v.X), Y: Coord(v.Y), Z: Coord(v.Z)}
}

func (p Point) Vec() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

type Segment struct {
	From  Point  `json:"from"`
	To    Point  `json:"to"`
	Color string `json:"color"`
}

type Label struct {
	At   Point  `json:"at"`
	Text string `json:"text"`
}

type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Scene is everything drawn on one viewport for one frame.
type Scene struct {
	Title      string    `json:"title"`
	AxisLabels [3]string `json:"axis_labels"`
	Limits     [3]Limits `json:"limits"`
	TickLabels bool      `json:"tick_labels"`
	Segments   []Segment `json:"segments"`
	Labels     []Label   `json:"labels"`
}

func emptyScene() Scene {
	return Scene{
		TickLabels: true,
		Segments:   []Segment{},
		Labels:     []Label{},
	}
}

// Recorder is a Surface that keeps the last presented frame as a Scene.
// It is safe to read Last from another goroutine while drawing.
type Recorder struct {
	// OnPresent, if set, is called with every presented scene.
	OnPresent func(Scene)

	mu     sync.Mutex
	cur    Scene
	last   Scene
	frames int
}

func NewRecorder() *Recorder {
	return &Recorder{cur: emptyScene(), last: emptyScene()}
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	r.cur = emptyScene()
	r.mu.Unlock()
}

func (r *Recorder) Line(from, to r3.Vec, c color.Color) {
	r.mu.Lock()
	r.cur.Segments = append(r.cur.Segments, Segment{From: PointOf(from), To: PointOf(to), Color: Hex(c)})
	r.mu.Unlock()
}

func (r *Recorder) Text(at r3.Vec, label string) {
	r.mu.Lock()
	r.cur.Labels = append(r.cur.Labels, Label{At: PointOf(at), Text: label})
	r.mu.Unlock()
}

func (r *Recorder) SetLimits(axis Axis, min, max float64) {
	if axis < AxisX || axis > AxisZ {
		return
	}
	r.mu.Lock()
	r.cur.Limits[axis] = Limits{Min: min, Max: max}
	r.mu.Unlock()
}

func (r *Recorder) HideTickLabels() {
	r.mu.Lock()
	r.cur.TickLabels = false
	r.mu.Unlock()
}

func (r *Recorder) SetAxisLabels(x, y, z string) {
	r.mu.Lock()
	r.cur.AxisLabels = [3]string{x, y, z}
	r.mu.Unlock()
}

func (r *Recorder) SetTitle(title string) {
	r.mu.Lock()
	r.cur.Title = title
	r.mu.Unlock()
}

func (r *Recorder) Present() error {
	r.mu.Lock()
	r.last = r.cur
	r.frames++
	scene, hook := r.last, r.OnPresent
	r.mu.Unlock()

	if hook != nil {
		hook(scene)
	}
	return nil
}

// Last returns the most recently presented scene.
func (r *Recorder) Last() Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Frames counts calls to Present.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
