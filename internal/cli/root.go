// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cli holds the quatviz cobra commands.
package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/quat_visualizer/internal/config"
	"github.com/relabs-tech/quat_visualizer/internal/logging"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// RootOptions holds global flags and the state PersistentPreRunE builds
// from them.
type RootOptions struct {
	ConfigPath string
	LogLevel   string

	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
}

// NewRootCommand creates the quatviz root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs quatviz with the process arguments, logs a fatal error and
// returns the exit status.
func Execute() int {
	opts := &RootOptions{}
	return execute(newRootCommand(opts), opts)
}

func execute(cmd *cobra.Command, opts *RootOptions) int {
	err := cmd.Execute()

	log := opts.log
	if opts.logCloser == nil {
		// failed before the configured logger existed
		log, _, _ = logging.New(logging.Options{Out: cmd.ErrOrStderr()})
	}
	status := 0
	if err != nil {
		log.Error().Err(err).Msg("quatviz: fatal")
		status = 1
	}
	if opts.logCloser != nil {
		_ = opts.logCloser.Close()
	}
	return status
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quatviz",
		Short: "Ground truth vs estimated orientation viewer",
		Long: `quatviz reads orientation records from an inertial sensor board and
draws the ground truth and the estimated orientation as two 3D viewports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath, "path to the KEY=VALUE config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (trace|debug|info|warn|error)")

	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewMockPublishCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	log, closer, err := logging.New(logging.Options{
		Level:          cfg.LogLevel,
		Out:            cmd.ErrOrStderr(),
		GraylogAddress: cfg.GraylogAddress,
	})
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.log = log
	o.logCloser = closer
	return nil
}
