// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package raster draws a viewport into an in-memory image. It is the
// software renderer behind the window, OLED and web backends.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/quat_visualizer/internal/render"
)

// Default camera, in degrees: the same view a 3D matplotlib axes opens with.
const (
	DefaultElevation = 30.0
	DefaultAzimuth   = -60.0
)

const (
	titleHeight = 16
	// half-size of the orthographic volume, in normalized units; the
	// limits cube spans [-1, 1] on every axis
	viewExtent = 2.0
)

// Style holds the colours and stroke widths of a Canvas.
type Style struct {
	Background color.Color
	Foreground color.Color // text, title
	Box        color.Color // limits cube
	LineWidth  float64
	BoxWidth   float64
	// Mono draws every line in Foreground and snaps each pixel to
	// Foreground or Background, for 1-bit displays.
	Mono bool
}

// DefaultStyle is black on white.
var DefaultStyle = Style{
	Background: color.White,
	Foreground: color.Black,
	Box:        color.Gray{Y: 0xb0},
	LineWidth:  2,
	BoxWidth:   1,
}

type line struct {
	from, to r3.Vec
	c        color.Color
}

type text struct {
	at    r3.Vec
	label string
}

type frame struct {
	lines      []line
	texts      []text
	limits     [3][2]float64
	tickLabels bool
	axisLabels [3]string
	title      string
}

func newFrame() frame {
	return frame{
		limits:     [3][2]float64{{-1, 1}, {-1, 1}, {-1, 1}},
		tickLabels: true,
	}
}

// Canvas is a render.Surface that collects draw calls and rasterizes them
// on Present.
type Canvas struct {
	// OnPresent, if set, receives every rendered image. The image is not
	// modified afterwards.
	OnPresent func(*image.RGBA)

	width, height int
	style         Style
	modelview     mgl64.Mat4
	projection    mgl64.Mat4

	mu   sync.Mutex
	cur  frame
	last *image.RGBA
}

var _ render.Surface = (*Canvas)(nil)

// New returns a width×height canvas seen from the default camera.
func New(width, height int, style Style) *Canvas {
	return NewWithCamera(width, height, style, DefaultElevation, DefaultAzimuth)
}

// NewWithCamera places the orthographic camera at the given elevation and
// azimuth (degrees), looking at the origin with Z up.
func NewWithCamera(width, height int, style Style, elevation, azimuth float64) *Canvas {
	if style.LineWidth <= 0 {
		style.LineWidth = 1
	}
	if style.BoxWidth <= 0 {
		style.BoxWidth = 1
	}

	el, az := mgl64.DegToRad(elevation), mgl64.DegToRad(azimuth)
	eye := mgl64.Vec3{
		math.Cos(el) * math.Cos(az),
		math.Cos(el) * math.Sin(az),
		math.Sin(el),
	}.Mul(5)
	modelview := mgl64.LookAtV(eye, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 1})

	plotH := float64(height - titleHeight)
	if plotH < 1 {
		plotH = 1
	}
	aspect := float64(width) / plotH
	l, r, b, t := -viewExtent, viewExtent, -viewExtent, viewExtent
	if aspect >= 1 {
		l, r = l*aspect, r*aspect
	} else {
		b, t = b/aspect, t/aspect
	}
	projection := mgl64.Ortho(l, r, b, t, -10, 10)

	c := &Canvas{
		width:      width,
		height:     height,
		style:      style,
		modelview:  modelview,
		projection: projection,
		cur:        newFrame(),
	}
	return c
}

func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.width, c.height)
}

func (c *Canvas) Clear() {
	c.mu.Lock()
	c.cur = newFrame()
	c.mu.Unlock()
}

func (c *Canvas) Line(from, to r3.Vec, col color.Color) {
	c.mu.Lock()
	c.cur.lines = append(c.cur.lines, line{from: from, to: to, c: col})
	c.mu.Unlock()
}

func (c *Canvas) Text(at r3.Vec, label string) {
	c.mu.Lock()
	c.cur.texts = append(c.cur.texts, text{at: at, label: label})
	c.mu.Unlock()
}

func (c *Canvas) SetLimits(axis render.Axis, min, max float64) {
	if axis < render.AxisX || axis > render.AxisZ || !(max > min) {
		return
	}
	c.mu.Lock()
	c.cur.limits[axis] = [2]float64{min, max}
	c.mu.Unlock()
}

func (c *Canvas) HideTickLabels() {
	c.mu.Lock()
	c.cur.tickLabels = false
	c.mu.Unlock()
}

func (c *Canvas) SetAxisLabels(x, y, z string) {
	c.mu.Lock()
	c.cur.axisLabels = [3]string{x, y, z}
	c.mu.Unlock()
}

func (c *Canvas) SetTitle(title string) {
	c.mu.Lock()
	c.cur.title = title
	c.mu.Unlock()
}

// Present rasterizes the current frame. It never fails; backends wrap it
// and report their own errors.
func (c *Canvas) Present() error {
	c.mu.Lock()
	f := c.cur
	c.mu.Unlock()

	img := c.rasterize(f)

	c.mu.Lock()
	c.last = img
	hook := c.OnPresent
	c.mu.Unlock()

	if hook != nil {
		hook(img)
	}
	return nil
}

// Image returns the last presented image, or a blank one before the first
// Present.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	img := c.last
	c.mu.Unlock()

	if img == nil {
		img = image.NewRGBA(c.Bounds())
		draw.Draw(img, img.Bounds(), image.NewUniform(c.style.Background), image.Point{}, draw.Src)
	}
	return img
}

// Project maps a point in normalized plot units ([-1, 1] per axis) to
// pixel coordinates. ok is false for non-finite input.
func (c *Canvas) Project(p r3.Vec) (x, y float64, ok bool) {
	if !finite(p) {
		return 0, 0, false
	}
	plotH := c.height - titleHeight
	if plotH < 1 {
		plotH = 1
	}
	win := mgl64.Project(mgl64.Vec3{p.X, p.Y, p.Z}, c.modelview, c.projection, 0, 0, c.width, plotH)
	return win.X(), float64(c.height) - win.Y(), true
}

func (c *Canvas) rasterize(f frame) *image.RGBA {
	img := image.NewRGBA(c.Bounds())
	draw.Draw(img, img.Bounds(), image.NewUniform(c.style.Background), image.Point{}, draw.Src)

	z := vector.NewRasterizer(c.width, c.height)

	for _, e := range cubeEdges {
		c.stroke(z, img, e[0], e[1], c.style.BoxWidth, c.style.Box)
	}

	norm := func(v r3.Vec) r3.Vec {
		return r3.Vec{
			X: normalize(v.X, f.limits[0]),
			Y: normalize(v.Y, f.limits[1]),
			Z: normalize(v.Z, f.limits[2]),
		}
	}

	for _, l := range f.lines {
		col := l.c
		if c.style.Mono {
			col = c.style.Foreground
		}
		c.stroke(z, img, norm(l.from), norm(l.to), c.style.LineWidth, col)
	}

	fg := image.NewUniform(c.style.Foreground)
	for _, t := range f.texts {
		if x, y, ok := c.Project(norm(t.at)); ok {
			c.label(img, fg, t.label, x+3, y-3, false)
		}
	}

	axisLabelAt := [3]r3.Vec{
		{X: 0, Y: -1.45, Z: -1},
		{X: 1.45, Y: 0, Z: -1},
		{X: -1.2, Y: 1.2, Z: 0},
	}
	for i, s := range f.axisLabels {
		if s == "" {
			continue
		}
		if x, y, ok := c.Project(axisLabelAt[i]); ok {
			c.label(img, fg, s, x, y, true)
		}
	}

	if f.tickLabels {
		c.ticks(img, fg, f.limits)
	}

	if f.title != "" {
		d := &font.Drawer{Face: basicfont.Face7x13}
		w := d.MeasureString(f.title).Ceil()
		c.label(img, fg, f.title, float64(c.width-w)/2, 12, false)
	}

	if c.style.Mono {
		threshold(img, c.style.Foreground, c.style.Background)
	}
	return img
}

// stroke draws a from→to segment given in normalized units as a filled
// quad. Segments with a non-finite end are skipped.
func (c *Canvas) stroke(z *vector.Rasterizer, dst *image.RGBA, from, to r3.Vec, width float64, col color.Color) {
	x0, y0, ok0 := c.Project(from)
	x1, y1, ok1 := c.Project(to)
	if !ok0 || !ok1 {
		return
	}
	if !c.near(x0, y0) || !c.near(x1, y1) {
		return
	}

	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2

	z.Reset(c.width, c.height)
	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// near rejects points far outside the canvas.
func (c *Canvas) near(x, y float64) bool {
	w, h := float64(c.width), float64(c.height)
	return x > -w && x < 2*w && y > -h && y < 2*h
}

func (c *Canvas) label(dst draw.Image, src image.Image, s string, x, y float64, centered bool) {
	d := &font.Drawer{Dst: dst, Src: src, Face: basicfont.Face7x13}
	if centered {
		x -= float64(d.MeasureString(s).Ceil()) / 2
	}
	d.Dot = fixed.P(int(math.Round(x)), int(math.Round(y)))
	d.DrawString(s)
}

func (c *Canvas) ticks(dst draw.Image, src image.Image, limits [3][2]float64) {
	for _, v := range []float64{-1, 0, 1} {
		at := [3]r3.Vec{
			{X: v, Y: -1.15, Z: -1},
			{X: 1.15, Y: v, Z: -1},
			{X: -1.1, Y: 1.1, Z: v},
		}
		for axis := 0; axis < 3; axis++ {
			val := limits[axis][0] + (v+1)/2*(limits[axis][1]-limits[axis][0])
			if x, y, ok := c.Project(at[axis]); ok {
				c.label(dst, src, formatTick(val), x, y, true)
			}
		}
	}
}

var cubeEdges = func() [][2]r3.Vec {
	var edges [][2]r3.Vec
	corners := []float64{-1, 1}
	for _, a := range corners {
		for _, b := range corners {
			edges = append(edges,
				[2]r3.Vec{{X: -1, Y: a, Z: b}, {X: 1, Y: a, Z: b}},
				[2]r3.Vec{{X: a, Y: -1, Z: b}, {X: a, Y: 1, Z: b}},
				[2]r3.Vec{{X: a, Y: b, Z: -1}, {X: a, Y: b, Z: 1}},
			)
		}
	}
	return edges
}()

func normalize(v float64, lim [2]float64) float64 {
	return (v-lim[0])/(lim[1]-lim[0])*2 - 1
}

func finite(v r3.Vec) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

func formatTick(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// threshold snaps every pixel that differs visibly from bg to fg, and the
// rest to bg.
func threshold(img *image.RGBA, fg, bg color.Color) {
	by := color.GrayModel.Convert(bg).(color.Gray).Y
	fgc := color.RGBAModel.Convert(fg).(color.RGBA)
	bgc := color.RGBAModel.Convert(bg).(color.RGBA)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.RGBAAt(x, y)).(color.Gray).Y
			if absDiff(g, by) > 64 {
				img.SetRGBA(x, y, fgc)
			} else {
				img.SetRGBA(x, y, bgc)
			}
		}
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
