// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindString is a text value. The zero Value is an empty string.
	KindString Kind = iota
	// KindNumber is a float64.
	KindNumber
	// KindPoint is a 2D point.
	KindPoint
)

// String returns the lowercase kind name used in configuration files.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindPoint:
		return "point"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts a configuration kind name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "string":
		return KindString, nil
	case "number":
		return KindNumber, nil
	case "point":
		return KindPoint, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q (expected string, number, or point)", name)
	}
}

// Value is a probe reading or a write parameter.
type Value struct {
	kind Kind
	text string
	x, y float64
}

// String returns a text Value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, x: f} }

// Point returns a 2D point Value.
func Point(x, y float64) Value { return Value{kind: KindPoint, x: x, y: y} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Text formats v for a response body. Numbers use the shortest
// representation that round-trips (3.0 is "3", 12.5 is "12.5"). Points
// are the two coordinates separated by one space.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.x)
	case KindPoint:
		return formatNumber(v.x) + " " + formatNumber(v.y)
	default:
		return v.text
	}
}

// String implements fmt.Stringer with the same output as Text.
func (v Value) String() string { return v.Text() }

// Float returns v as a number. String values are parsed; points are
// rejected.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.x, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v.text)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %s value to a number", v.kind)
	}
}

// XY returns v as a point. String values are parsed from "<x> <y>".
func (v Value) XY() (x, y float64, err error) {
	switch v.kind {
	case KindPoint:
		return v.x, v.y, nil
	case KindString:
		parsed, err := parsePoint(v.text)
		if err != nil {
			return 0, 0, err
		}
		return parsed.x, parsed.y, nil
	default:
		return 0, 0, fmt.Errorf("cannot convert %s value to a point", v.kind)
	}
}

// Equal reports whether v and other hold the same kind and contents.
func (v Value) Equal(other Value) bool { return v == other }

// ParseValue converts text into a Value of the given kind.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindString:
		return String(text), nil
	case KindNumber:
		f, err := String(text).Float()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case KindPoint:
		return parsePoint(text)
	default:
		return Value{}, fmt.Errorf("unknown value kind %s", kind)
	}
}

// As converts v to the given kind, parsing string values where
// needed. Used by typed Variables to coerce written parameters.
func (v Value) As(kind Kind) (Value, error) {
	if v.kind == kind {
		return v, nil
	}
	if kind == KindString {
		return String(v.Text()), nil
	}
	if v.kind != KindString {
		return Value{}, fmt.Errorf("cannot convert %s value to %s", v.kind, kind)
	}
	return ParseValue(kind, v.text)
}

func parsePoint(text string) (Value, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Value{}, fmt.Errorf("point %q must be two space-separated numbers", text)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Value{}, fmt.Errorf("point %q: x is not a number", text)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Value{}, fmt.Errorf("point %q: y is not a number", text)
	}
	return Point(x, y), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
