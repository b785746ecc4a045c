// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package window

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_PanesFeedFrames(t *testing.T) {
	w := New("quatviz", 400, 200)

	w.GroundTruth().SetTitle("Ground Truth Orientation")
	require.NoError(t, w.GroundTruth().Present())

	w.mu.Lock()
	left, right := w.frames[0], w.frames[1]
	dirty := w.dirty[0]
	w.mu.Unlock()

	require.NotNil(t, left)
	assert.Nil(t, right)
	assert.True(t, dirty)
	assert.Equal(t, 200, left.Bounds().Dx())
	assert.Equal(t, 200, left.Bounds().Dy())

	ow, oh := w.Layout(1000, 1000)
	assert.Equal(t, 400, ow)
	assert.Equal(t, 200, oh)
}

func TestWindow_CloseStopsPanes(t *testing.T) {
	w := New("quatviz", 400, 200)
	require.NoError(t, w.Update())

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Update(), ebiten.Termination)
	assert.ErrorIs(t, w.Estimated().Present(), ErrClosed)
}
