// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"

	"github.com/relabs-tech/quat_visualizer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
