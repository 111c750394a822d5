// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package values holds the loose coercion rules used on decoded JSON:
// truthiness, numeric conversion and string conversion.
package values

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Truthy reports whether v counts as true: nil, false, 0, NaN and ""
// are false, everything else is true.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	}
	if f, ok := asFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// Number converts v to a float64. Booleans become 1 or 0 and strings are
// parsed after trimming. Nil, blank strings and composite values are not
// numeric.
func Number(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// String renders v the way it would be used as an object key: integers
// have no fraction, nil is "null" and composite values are JSON.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	}
	if f, ok := asFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// ID converts a truthy identifier of any scalar type to a string. It
// reports false when v is not truthy.
func ID(v any) (string, bool) {
	if !Truthy(v) {
		return "", false
	}
	return String(v), true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
