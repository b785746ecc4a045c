// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is one orientation as sent by the sensor board, in wire order
// (x, y, z, w). It is never normalized: a zero or non-unit quaternion is kept
// as received and produces degenerate geometry downstream.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the quaternion of no rotation.
var Identity = Quaternion{W: 1}

// FrameRecord is one decoded line: the reference orientation reported by the
// board and the orientation its filter estimated.
type FrameRecord struct {
	GroundTruth Quaternion `json:"ground_truth_quat"`
	Estimated   Quaternion `json:"estimated_quat"`
}

// Pose is the Euler readout of an orientation, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// FromNumber converts a gonum quaternion (Real is the scalar part).
func FromNumber(n quat.Number) Quaternion {
	return Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

// Number returns q as a gonum quaternion.
func (q Quaternion) Number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Norm is the quaternion modulus; 1 for a valid rotation.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.Number())
}

// Inverse returns q⁻¹. The inverse of the zero quaternion is not finite.
func (q Quaternion) Inverse() Quaternion {
	return FromNumber(quat.Inv(q.Number()))
}

// FromAxisAngle builds the unit quaternion rotating by angle radians about
// axis. The axis does not need to be normalized.
func FromAxisAngle(ax, ay, az, angle float64) Quaternion {
	n := math.Sqrt(ax*ax + ay*ay + az*az)
	if n == 0 {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	return Quaternion{X: ax / n * s, Y: ay / n * s, Z: az / n * s, W: c}
}

// Pose converts q to roll/pitch/yaw using the aerospace (ZYX) sequence:
//
//	roll  = atan2(2(wx + yz), 1 - 2(x² + y²))
//	pitch = asin(2(wy - zx))
//	yaw   = atan2(2(wz + xy), 1 - 2(y² + z²))
func (q Quaternion) Pose() Pose {
	x, y, z, w := q.X, q.Y, q.Z, q.W

	rollRad := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	// clamp so rounding noise at ±90° does not give NaN
	sinp = math.Max(-1, math.Min(1, sinp))
	pitchRad := math.Asin(sinp)

	yawRad := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
		Yaw:   yawRad * 180.0 / math.Pi,
	}
}

// FromPose is the inverse of Pose: it builds the unit quaternion for the
// given roll, pitch and yaw in degrees (ZYX sequence).
func FromPose(p Pose) Quaternion {
	const rad = math.Pi / 180.0
	sr, cr := math.Sincos(p.Roll * rad / 2)
	sp, cp := math.Sincos(p.Pitch * rad / 2)
	sy, cy := math.Sincos(p.Yaw * rad / 2)

	return Quaternion{
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
		W: cr*cp*cy + sr*sp*sy,
	}
}

// AngleBetween returns the rotation angle in degrees that takes a onto b.
// Both inputs are normalized for the comparison only; the result is NaN if
// either is the zero quaternion.
func AngleBetween(a, b Quaternion) float64 {
	rel := quat.Mul(b.Number(), quat.Conj(a.Number()))
	if quat.Abs(rel) == 0 {
		return math.NaN()
	}
	vec := math.Sqrt(rel.Imag*rel.Imag + rel.Jmag*rel.Jmag + rel.Kmag*rel.Kmag)
	return 2 * math.Atan2(vec, math.Abs(rel.Real)) * 180.0 / math.Pi
}
