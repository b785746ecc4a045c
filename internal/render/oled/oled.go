// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package oled mirrors the viewports on two SSD1306 128x64 panels, one per
// I²C bus, for running the viewer headless on the bench computer.
package oled

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
	"github.com/relabs-tech/quat_visualizer/internal/render"
	"github.com/relabs-tech/quat_visualizer/internal/render/raster"
)

// device is the part of *ssd1306.Dev a Panel uses.
type device interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

var monoStyle = raster.Style{
	Background: color.Black,
	Foreground: color.White,
	Box:        color.White,
	LineWidth:  1,
	BoxWidth:   1,
	Mono:       true,
}

// Display drives the ground truth panel and the estimate panel.
type Display struct {
	panels [2]*Panel
	buses  []i2c.BusCloser
}

// Open initializes periph and one SSD1306 on each bus. The panels use the
// driver's default address, so they sit on separate buses.
func Open(leftBus, rightBus string) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	d := &Display{}
	for i, name := range []string{leftBus, rightBus} {
		bus, err := i2creg.Open(name)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
		}
		d.buses = append(d.buses, bus)

		dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to initialize display on bus %q: %w", name, err)
		}
		d.panels[i] = NewPanel(dev, i == 0)
	}
	return d, nil
}

func (d *Display) GroundTruth() render.Surface { return d.panels[0] }
func (d *Display) Estimated() render.Surface   { return d.panels[1] }

// OnFrame keeps the Euler readout shown under each panel's plot current.
func (d *Display) OnFrame(rec orientation.FrameRecord) {
	if d.panels[0] != nil {
		d.panels[0].SetPose(rec.GroundTruth.Pose())
	}
	if d.panels[1] != nil {
		d.panels[1].SetPose(rec.Estimated.Pose())
	}
}

// Close blanks the panels and releases the buses.
func (d *Display) Close() error {
	var errs []error
	for _, p := range d.panels {
		if p != nil {
			errs = append(errs, p.dev.Halt())
		}
	}
	for _, b := range d.buses {
		errs = append(errs, b.Close())
	}
	d.buses = nil
	return errors.Join(errs...)
}

// Panel is a render.Surface backed by one SSD1306.
type Panel struct {
	*raster.Canvas
	dev   device
	truth bool

	mu       sync.Mutex
	pose     orientation.Pose
	havePose bool
}

// NewPanel wraps dev; truth selects the "GT" or "EST" tag in the readout.
func NewPanel(dev device, truth bool) *Panel {
	b := dev.Bounds()
	return &Panel{
		Canvas: raster.New(b.Dx(), b.Dy(), monoStyle),
		dev:    dev,
		truth:  truth,
	}
}

func (p *Panel) SetPose(pose orientation.Pose) {
	p.mu.Lock()
	p.pose = pose
	p.havePose = true
	p.mu.Unlock()
}

// Present rasterizes the frame, adds the readout and pushes it to the
// panel.
func (p *Panel) Present() error {
	if err := p.Canvas.Present(); err != nil {
		return err
	}

	img := image1bit.NewVerticalLSB(p.dev.Bounds())
	draw.Draw(img, img.Bounds(), p.Canvas.Image(), image.Point{}, draw.Src)

	p.mu.Lock()
	pose, have := p.pose, p.havePose
	p.mu.Unlock()

	tag := "EST"
	if p.truth {
		tag = "GT"
	}
	line := tag + " waiting..."
	if have {
		line = fmt.Sprintf("%s %4.0f%4.0f%4.0f", tag, pose.Roll, pose.Pitch, pose.Yaw)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, img.Bounds().Dy()-2),
	}
	drawer.DrawString(line)

	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("oled draw: %w", err)
	}
	return nil
}
