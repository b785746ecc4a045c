// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
)

func TestDecode_IdentityRecord(t *testing.T) {
	line := []byte(`{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`)

	rec, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, orientation.Identity, rec.GroundTruth)
	assert.Equal(t, orientation.Identity, rec.Estimated)
}

func TestDecode_FieldOrderAndExtraFields(t *testing.T) {
	line := []byte(`{"seq": 17, "estimated_quat": {"w": 0.5, "z": -0.5, "y": 0.5, "x": -0.5, "t": 3},
		"ground_truth_quat": {"w": 0.1, "x": 0.2, "y": 0.3, "z": 0.4}}` + "\r\n")

	rec, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, orientation.Quaternion{X: 0.2, Y: 0.3, Z: 0.4, W: 0.1}, rec.GroundTruth)
	assert.Equal(t, orientation.Quaternion{X: -0.5, Y: 0.5, Z: -0.5, W: 0.5}, rec.Estimated)
}

func TestDecode_ComponentKeysAreCaseSensitive(t *testing.T) {
	line := []byte(`{"ground_truth_quat":{"x":0.1,"X":9,"y":0.2,"Y":8,"z":0.3,"w":0.9,"W":7},` +
		`"estimated_quat":{"W":5,"x":0,"y":0,"z":0,"w":1}}`)

	rec, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, orientation.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9}, rec.GroundTruth)
	assert.Equal(t, orientation.Identity, rec.Estimated)
}

func TestDecode_NoNormalization(t *testing.T) {
	line := []byte(`{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":0},"estimated_quat":{"x":2,"y":0,"z":0,"w":2}}`)

	rec, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, orientation.Quaternion{}, rec.GroundTruth)
	assert.Equal(t, orientation.Quaternion{X: 2, W: 2}, rec.Estimated)
}

func TestDecode_MissingEstimated(t *testing.T) {
	_, err := Decode([]byte(`{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1}}`))

	require.Error(t, err)
	assert.Equal(t, KindMissingField, KindOf(err))
	assert.ErrorIs(t, err, ErrMissingField)
	assert.NotErrorIs(t, err, ErrSyntax)
	assert.NotErrorIs(t, err, ErrEncoding)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "estimated_quat", de.Field)
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		kind  Kind
		field string
	}{
		{"not json", `not valid json`, KindSyntax, ""},
		{"empty line", ``, KindSyntax, ""},
		{"blank line", "\r\n", KindSyntax, ""},
		{"truncated", `{"ground_truth_quat":{"x":0,"y":0,`, KindSyntax, ""},
		{"array", `[1,2,3]`, KindSyntax, ""},
		{"scalar", `42`, KindSyntax, ""},
		{"null", `null`, KindSyntax, ""},
		{"quat not object", `{"ground_truth_quat":5,"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindSyntax, "ground_truth_quat"},
		{"component string", `{"ground_truth_quat":{"x":"a","y":0,"z":0,"w":1},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindSyntax, "ground_truth_quat"},
		{"missing ground truth", `{"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindMissingField, "ground_truth_quat"},
		{"empty object", `{}`, KindMissingField, "ground_truth_quat"},
		{"null quat", `{"ground_truth_quat":null,"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindMissingField, "ground_truth_quat"},
		{"missing w", `{"ground_truth_quat":{"x":0,"y":0,"z":0},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindMissingField, "ground_truth_quat.w"},
		{"null component", `{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1},"estimated_quat":{"x":null,"y":0,"z":0,"w":1}}`, KindMissingField, "estimated_quat.x"},
		{"uppercase components", `{"ground_truth_quat":{"X":0.1,"Y":0.2,"Z":0.3,"W":0.9},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindMissingField, "ground_truth_quat.x"},
		{"uppercase w only", `{"ground_truth_quat":{"x":0,"y":0,"z":0,"w":1},"estimated_quat":{"x":0,"y":0,"z":0,"W":1}}`, KindMissingField, "estimated_quat.w"},
		{"uppercase quat key", `{"Ground_Truth_Quat":{"x":0,"y":0,"z":0,"w":1},"estimated_quat":{"x":0,"y":0,"z":0,"w":1}}`, KindMissingField, "ground_truth_quat"},
		{"invalid utf-8", "{\"ground_truth_quat\":\xff\xfe}", KindEncoding, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			require.Error(t, err)

			var de *DecodeError
			require.True(t, errors.As(err, &de), "want *DecodeError, got %T", err)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestDecodeError_Message(t *testing.T) {
	err := &DecodeError{Kind: KindMissingField, Field: "estimated_quat.w"}
	assert.Equal(t, "decode record: missing_field (estimated_quat.w)", err.Error())

	err = &DecodeError{Kind: KindSyntax, Err: errors.New("boom")}
	assert.Equal(t, "decode record: syntax: boom", err.Error())
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("other")))
	assert.Equal(t, Kind(0), KindOf(nil))
	assert.Equal(t, "unknown", Kind(0).String())
}
