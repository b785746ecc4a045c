// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestQuaternion_NumberRoundTrip(t *testing.T) {
	q := Quaternion{X: 0.1, Y: -0.2, Z: 0.3, W: 0.9}
	n := q.Number()

	assert.Equal(t, 0.9, n.Real)
	assert.Equal(t, 0.1, n.Imag)
	assert.Equal(t, -0.2, n.Jmag)
	assert.Equal(t, 0.3, n.Kmag)
	assert.Equal(t, q, FromNumber(n))
}

func TestQuaternion_JSONFieldNames(t *testing.T) {
	b, err := json.Marshal(FrameRecord{GroundTruth: Identity, Estimated: Quaternion{X: 1}})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1},"estimated_quat":{"x":1,"y":0,"z":0,"w":0}}`,
		string(b))
}

func TestFromAxisAngle(t *testing.T) {
	q := FromAxisAngle(0, 0, 2, math.Pi/2)

	assert.InDelta(t, 0, q.X, tol)
	assert.InDelta(t, 0, q.Y, tol)
	assert.InDelta(t, math.Sqrt2/2, q.Z, tol)
	assert.InDelta(t, math.Sqrt2/2, q.W, tol)
	assert.InDelta(t, 1, q.Norm(), tol)

	assert.Equal(t, Identity, FromAxisAngle(0, 0, 0, 1))
}

func TestInverse(t *testing.T) {
	q := FromAxisAngle(1, 2, 3, 0.7)
	inv := q.Inverse()

	assert.InDelta(t, -q.X, inv.X, tol)
	assert.InDelta(t, -q.Y, inv.Y, tol)
	assert.InDelta(t, -q.Z, inv.Z, tol)
	assert.InDelta(t, q.W, inv.W, tol)
}

func TestPose(t *testing.T) {
	tests := []struct {
		name string
		q    Quaternion
		want Pose
	}{
		{"identity", Identity, Pose{}},
		{"roll 30", FromAxisAngle(1, 0, 0, 30*math.Pi/180), Pose{Roll: 30}},
		{"pitch -45", FromAxisAngle(0, 1, 0, -45*math.Pi/180), Pose{Pitch: -45}},
		{"yaw 90", FromAxisAngle(0, 0, 1, math.Pi/2), Pose{Yaw: 90}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.Pose()
			assert.InDelta(t, tt.want.Roll, got.Roll, 1e-6)
			assert.InDelta(t, tt.want.Pitch, got.Pitch, 1e-6)
			assert.InDelta(t, tt.want.Yaw, got.Yaw, 1e-6)
		})
	}
}

func TestFromPose_RoundTrip(t *testing.T) {
	poses := []Pose{
		{},
		{Roll: 20, Pitch: -10, Yaw: 45},
		{Roll: -170, Pitch: 60, Yaw: -120},
		{Roll: 5, Pitch: 85, Yaw: 179},
	}
	for _, p := range poses {
		q := FromPose(p)
		assert.InDelta(t, 1, q.Norm(), tol)

		got := q.Pose()
		assert.InDelta(t, p.Roll, got.Roll, 1e-6, "%+v", p)
		assert.InDelta(t, p.Pitch, got.Pitch, 1e-6, "%+v", p)
		assert.InDelta(t, p.Yaw, got.Yaw, 1e-6, "%+v", p)
	}

	assert.InDelta(t, 0, AngleBetween(FromPose(Pose{Yaw: 90}), FromAxisAngle(0, 0, 1, math.Pi/2)), 1e-6)
}

func TestPose_GimbalLockDoesNotProduceNaN(t *testing.T) {
	q := FromAxisAngle(0, 1, 0, math.Pi/2)
	q.W += 1e-17

	p := q.Pose()
	assert.False(t, math.IsNaN(p.Pitch))
	assert.InDelta(t, 90, p.Pitch, 1e-6)
}

func TestAngleBetween(t *testing.T) {
	a := Identity
	b := FromAxisAngle(0, 0, 1, math.Pi/2)

	assert.InDelta(t, 90, AngleBetween(a, b), 1e-6)
	assert.InDelta(t, 0, AngleBetween(b, b), 1e-6)

	// q and -q are the same rotation
	neg := Quaternion{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}
	assert.InDelta(t, 0, AngleBetween(b, neg), 1e-6)

	// scale does not matter
	scaled := Quaternion{X: 2 * b.X, Y: 2 * b.Y, Z: 2 * b.Z, W: 2 * b.W}
	assert.InDelta(t, 90, AngleBetween(a, scaled), 1e-6)
}

func TestAngleBetween_ZeroQuaternion(t *testing.T) {
	assert.True(t, math.IsNaN(AngleBetween(Quaternion{}, Identity)))
}
