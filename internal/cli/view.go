// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/quat_visualizer/internal/app"
	"github.com/relabs-tech/quat_visualizer/internal/config"
	"github.com/relabs-tech/quat_visualizer/internal/logging"
	"github.com/relabs-tech/quat_visualizer/internal/source"
)

// ViewOptions are command-line overrides of the config file.
type ViewOptions struct {
	Source  string
	Port    string
	Baud    int
	Backend string
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show ground truth and estimate side by side",
		Long: `Read records from the configured source and draw both orientations on
every configured render backend until interrupted or the source fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd, rootOpts.cfg)
			return runView(cmd, rootOpts)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", "", "override SOURCE (serial|stdin|mqtt|mock)")
	cmd.Flags().StringVar(&opts.Port, "port", "", "override SERIAL_PORT")
	cmd.Flags().IntVar(&opts.Baud, "baud", 0, "override SERIAL_BAUD_RATE")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "override RENDER_BACKEND (comma list of window,oled,web)")

	return cmd
}

func (o *ViewOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = o.Source
	}
	if flags.Changed("port") {
		cfg.SerialPort = o.Port
	}
	if flags.Changed("baud") {
		cfg.SerialBaudRate = o.Baud
	}
	if flags.Changed("backend") {
		cfg.RenderBackend = o.Backend
	}
}

func runView(cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, log := rootOpts.cfg, rootOpts.log
	if err := cfg.Validate(); err != nil {
		return err
	}

	t, err := source.New(cfg, logging.Component(log, "source"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("source", cfg.Source).Strs("backends", cfg.Backends()).Msg("view: starting")
	return app.RunViewer(ctx, cfg, log, t, cmd.OutOrStdout())
}

// NewMockPublishCommand creates the mock-publish command.
func NewMockPublishCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mock-publish",
		Short: "Publish mock board records to MQTT",
		Long: `Publish records from the built-in mock board to TOPIC_FRAMES on
MQTT_BROKER, for running the viewer with SOURCE=mqtt without hardware.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunMockPublisher(ctx, rootOpts.cfg, rootOpts.log)
		},
	}
}
