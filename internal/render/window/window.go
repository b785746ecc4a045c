// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package window shows the two viewports side by side in a desktop window.
package window

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/relabs-tech/quat_visualizer/internal/render"
	"github.com/relabs-tech/quat_visualizer/internal/render/raster"
)

// ErrClosed is returned by Present once the window is gone.
var ErrClosed = errors.New("window: closed")

// Window owns two canvases and the ebiten game that displays them. The
// pipeline draws from its own goroutine; ebiten runs on the main one.
type Window struct {
	title         string
	width, height int
	panes         [2]*pane

	mu     sync.Mutex
	frames [2]*image.RGBA
	dirty  [2]bool
	imgs   [2]*ebiten.Image

	closing atomic.Bool
	closed  atomic.Bool
}

// New splits a width×height window into two equal panes.
func New(title string, width, height int) *Window {
	w := &Window{title: title, width: width, height: height}
	for i := range w.panes {
		w.panes[i] = &pane{
			Canvas: raster.New(width/2, height, raster.DefaultStyle),
			win:    w,
			idx:    i,
		}
	}
	return w
}

// GroundTruth is the left pane.
func (w *Window) GroundTruth() render.Surface { return w.panes[0] }

// Estimated is the right pane.
func (w *Window) Estimated() render.Surface { return w.panes[1] }

// Run opens the window and blocks until it is closed by the user or by
// Close. It must be called from the main goroutine.
func (w *Window) Run() error {
	defer w.closed.Store(true)

	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetTPS(60)
	return ebiten.RunGame(w)
}

// Close asks the game loop to stop; Run returns shortly after.
func (w *Window) Close() error {
	w.closing.Store(true)
	return nil
}

func (w *Window) setFrame(i int, img *image.RGBA) {
	w.mu.Lock()
	w.frames[i] = img
	w.dirty[i] = true
	w.mu.Unlock()
}

func (w *Window) Update() error {
	if w.closing.Load() {
		return ebiten.Termination
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, frame := range w.frames {
		if frame == nil {
			continue
		}
		b := frame.Bounds()
		if w.imgs[i] == nil || w.imgs[i].Bounds().Size() != b.Size() {
			if w.imgs[i] != nil {
				w.imgs[i].Deallocate()
			}
			w.imgs[i] = ebiten.NewImage(b.Dx(), b.Dy())
			w.dirty[i] = true
		}
		if w.dirty[i] {
			w.imgs[i].WritePixels(frame.Pix)
			w.dirty[i] = false
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(i*w.width/2), 0)
		screen.DrawImage(w.imgs[i], op)
	}
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.width, w.height
}

// pane is one half of the window.
type pane struct {
	*raster.Canvas
	win *Window
	idx int
}

func (p *pane) Present() error {
	if p.win.closed.Load() || p.win.closing.Load() {
		return ErrClosed
	}
	if err := p.Canvas.Present(); err != nil {
		return err
	}
	p.win.setFrame(p.idx, p.Canvas.Image())
	return nil
}
