// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/quat_visualizer/internal/pipeline"
	"github.com/relabs-tech/quat_visualizer/internal/record"
	"github.com/relabs-tech/quat_visualizer/internal/source"
)

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "Decode records from stdin and print the Euler readout",
		Long: `Read one record per line from stdin, as the board sends them, and print
either the readout of both orientations or why the line would be skipped.
Useful for checking captured serial logs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runDecode(in io.Reader, out io.Writer) error {
	r := source.NewReader("stdin", in)
	if err := r.Open(); err != nil {
		return err
	}
	defer r.Close()

	var n, frames, skipped int
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		n++

		rec, err := record.Decode(line)
		if err != nil {
			skipped++
			fmt.Fprintf(out, "line %d: skipped (%s): %v\n", n, record.KindOf(err), err)
			continue
		}
		frames++
		fmt.Fprintf(out, "line %d: ok\n", n)
		pipeline.WriteReadout(out, rec)
	}

	fmt.Fprintf(out, "%d lines, %d frames, %d skipped\n", n, frames, skipped)
	return nil
}
