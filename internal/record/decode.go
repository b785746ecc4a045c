// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package record decodes the line-delimited JSON records sent by the sensor
// board:
//
//	{"ground_truth_quat": {"x": 0, "y": 0, "z": 0, "w": 1},
//	 "estimated_quat":    {"x": 0, "y": 0, "z": 0, "w": 1}}
//
// Malformed input is reported, never repaired; the caller drops the line.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/relabs-tech/quat_visualizer/internal/orientation"
)

const (
	keyGroundTruth = "ground_truth_quat"
	keyEstimated   = "estimated_quat"
)

// Kind classifies why a line could not be decoded.
type Kind int

const (
	KindEncoding Kind = iota + 1
	KindSyntax
	KindMissingField
)

func (k Kind) String() string {
	switch k {
	case KindEncoding:
		return "encoding"
	case KindSyntax:
		return "syntax"
	case KindMissingField:
		return "missing_field"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; a *DecodeError matches the one of its Kind.
var (
	ErrEncoding     = errors.New("record: invalid utf-8")
	ErrSyntax       = errors.New("record: malformed json")
	ErrMissingField = errors.New("record: missing field")
)

// DecodeError is returned by Decode for every rejected line.
type DecodeError struct {
	Kind  Kind
	Field string // dotted path of the missing or mistyped field, if any
	Err   error
}

func (e *DecodeError) Error() string {
	var b bytes.Buffer
	b.WriteString("decode record: ")
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSyntax) and friends match on Kind.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrEncoding:
		return e.Kind == KindEncoding
	case ErrSyntax:
		return e.Kind == KindSyntax
	case ErrMissingField:
		return e.Kind == KindMissingField
	}
	return false
}

// KindOf returns the Kind of a decode error, or 0 if err is not one.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Decode parses one raw line into a FrameRecord.
//
// Steps, each with its own failure kind:
//  1. the bytes must be valid UTF-8 (KindEncoding);
//  2. the text must be a JSON object (KindSyntax);
//  3. ground_truth_quat and estimated_quat must be present, each with
//     numeric x, y, z, w (KindMissingField when absent, KindSyntax when a
//     value has the wrong JSON type).
//
// Extra fields are ignored. The quaternions are not validated further.
func Decode(raw []byte) (orientation.FrameRecord, error) {
	if !utf8.Valid(raw) {
		return orientation.FrameRecord{}, &DecodeError{Kind: KindEncoding, Err: errors.New("invalid byte sequence")}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return orientation.FrameRecord{}, &DecodeError{Kind: KindSyntax, Err: err}
	}
	// "null" unmarshals into a nil map without error
	if top == nil {
		return orientation.FrameRecord{}, &DecodeError{Kind: KindSyntax, Err: errors.New("not a json object")}
	}

	gt, err := decodeQuat(top, keyGroundTruth)
	if err != nil {
		return orientation.FrameRecord{}, err
	}
	est, err := decodeQuat(top, keyEstimated)
	if err != nil {
		return orientation.FrameRecord{}, err
	}

	return orientation.FrameRecord{GroundTruth: gt, Estimated: est}, nil
}

func decodeQuat(top map[string]json.RawMessage, key string) (orientation.Quaternion, error) {
	raw, ok := top[key]
	if !ok || isNull(raw) {
		return orientation.Quaternion{}, &DecodeError{Kind: KindMissingField, Field: key}
	}

	// component keys are matched exactly: "X" is not "x"
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return orientation.Quaternion{}, &DecodeError{Kind: KindSyntax, Field: key, Err: err}
	}

	var comps [4]float64
	for i, name := range []string{"x", "y", "z", "w"} {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return orientation.Quaternion{}, &DecodeError{Kind: KindMissingField, Field: key + "." + name}
		}
		if err := json.Unmarshal(v, &comps[i]); err != nil {
			return orientation.Quaternion{}, &DecodeError{Kind: KindSyntax, Field: key, Err: err}
		}
	}

	return orientation.Quaternion{X: comps[0], Y: comps[1], Z: comps[2], W: comps[3]}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
