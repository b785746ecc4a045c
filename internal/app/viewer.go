// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/quat_visualizer/internal/config"
	"github.com/relabs-tech/quat_visualizer/internal/logging"
	"github.com/relabs-tech/quat_visualizer/internal/pipeline"
	"github.com/relabs-tech/quat_visualizer/internal/render"
	"github.com/relabs-tech/quat_visualizer/internal/render/oled"
	"github.com/relabs-tech/quat_visualizer/internal/render/web"
	"github.com/relabs-tech/quat_visualizer/internal/render/window"
	"github.com/relabs-tech/quat_visualizer/internal/source"
)

const windowTitle = "Quaternion Visualizer"

// backends is the set of render targets selected by RENDER_BACKEND.
type backends struct {
	groundTruth render.Tee
	estimated   render.Tee
	preDraw     []pipeline.Observer
	closers     []io.Closer

	window *window.Window
	web    *web.Server
}

func openBackends(cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}
	for _, name := range cfg.Backends() {
		switch name {
		case config.BackendWindow:
			w := window.New(windowTitle, cfg.WindowWidth, cfg.WindowHeight)
			b.add(w.GroundTruth(), w.Estimated())
			b.window = w
			b.closers = append(b.closers, w)

		case config.BackendOLED:
			d, err := oled.Open(cfg.DisplayLeftI2CBus, cfg.DisplayRightI2CBus)
			if err != nil {
				b.close(log)
				return nil, err
			}
			b.add(d.GroundTruth(), d.Estimated())
			b.preDraw = append(b.preDraw, d)
			b.closers = append(b.closers, d)
			log.Info().
				Str("left_bus", cfg.DisplayLeftI2CBus).
				Str("right_bus", cfg.DisplayRightI2CBus).
				Msg("viewer: OLED panels ready")

		case config.BackendWeb:
			s := web.New(logging.Component(log, "web"))
			b.add(s.GroundTruth(), s.Estimated())
			b.web = s
			b.closers = append(b.closers, s)

		default:
			b.close(log)
			return nil, fmt.Errorf("unknown render backend %q", name)
		}
	}
	if len(b.groundTruth) == 0 {
		return nil, errors.New("no render backend configured")
	}
	return b, nil
}

func (b *backends) add(gt, est render.Surface) {
	b.groundTruth = append(b.groundTruth, gt)
	b.estimated = append(b.estimated, est)
}

func (b *backends) close(log zerolog.Logger) {
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("viewer: backend close error")
		}
	}
	b.closers = nil
}

// RunViewer renders every record read from t on the configured backends
// until ctx is cancelled, the window is closed or the transport fails.
// With the window backend it must be called from the main goroutine.
// Console readouts, if enabled, go to out.
func RunViewer(ctx context.Context, cfg *config.Config, log zerolog.Logger, t source.Transport, out io.Writer) error {
	log = logging.Component(log, "viewer")

	b, err := openBackends(cfg, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	opts := []pipeline.Option{pipeline.WithLogger(logging.Component(log, "pipeline"))}
	if cfg.ConsoleLogInterval > 0 {
		console := pipeline.NewConsole(out, time.Duration(cfg.ConsoleLogInterval)*time.Millisecond)
		opts = append(opts, pipeline.WithObserver(console))
	}
	for _, o := range b.preDraw {
		opts = append(opts, pipeline.WithPreDraw(o))
	}

	loop, err := pipeline.New(b.groundTruth, b.estimated, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	webDone := make(chan struct{})
	if b.web != nil {
		go func() {
			defer close(webDone)
			if err := b.web.ListenAndServe(ctx, cfg.WebServerPort); err != nil {
				log.Error().Err(err).Msg("viewer: web server stopped")
				cancel()
			}
		}()
	} else {
		close(webDone)
	}

	if b.window == nil {
		err = loop.Run(ctx, t)
	} else {
		err = runWithWindow(ctx, cancel, loop, t, b.window, log)
	}
	cancel()
	<-webDone

	stats := loop.Stats()
	log.Info().
		Uint64("frames", stats.Frames).
		Uint64("skipped", stats.Skipped()).
		Msg("viewer: stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runWithWindow keeps ebiten on the calling goroutine and the pipeline on
// another. Whichever finishes first stops the other.
func runWithWindow(ctx context.Context, cancel context.CancelFunc, loop *pipeline.Loop, t source.Transport, w *window.Window, log zerolog.Logger) error {
	loopErr := make(chan error, 1)
	go func() {
		err := loop.Run(ctx, t)
		_ = w.Close()
		loopErr <- err
	}()

	if err := w.Run(); err != nil {
		log.Error().Err(err).Msg("viewer: window error")
	}
	cancel()
	err := <-loopErr
	if errors.Is(err, window.ErrClosed) {
		return nil
	}
	return err
}
