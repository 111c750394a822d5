// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package normalizer

import "github.com/absmach/scadabind/pkg/values"

// Shape identifies one of the recognized payload layouts.
type Shape int

const (
	// Unknown is a payload that matches no supported layout.
	Unknown Shape = iota
	// PointArray is a bare array of {id, value} points.
	PointArray
	// Standard is {id|deviceId, name?, points: [...]}.
	Standard
	// SinglePoint is {deviceId|id, pointId|point, value}.
	SinglePoint
	// Flat is {deviceId|id, key: value, ...}.
	Flat
	// Nested is {device: {id|deviceId, data?, points?}}.
	Nested
)

var shapes = map[Shape]string{
	Unknown:     "unknown",
	PointArray:  "point-array",
	Standard:    "standard",
	SinglePoint: "single-point",
	Flat:        "flat",
	Nested:      "nested",
}

func (s Shape) String() string {
	if name, ok := shapes[s]; ok {
		return name
	}
	return shapes[Unknown]
}

// Keys that never become points in the flat layout.
var reservedKeys = map[string]struct{}{
	"deviceId":   {},
	"id":         {},
	"deviceName": {},
	"name":       {},
	"timestamp":  {},
}

// Classify reports the first layout that raw matches, trying them in
// priority order: point array, standard, single point, flat, nested.
func Classify(raw any) Shape {
	switch data := raw.(type) {
	case []any:
		if isPointArray(data) {
			return PointArray
		}
	case map[string]any:
		switch {
		case isStandard(data):
			return Standard
		case isSinglePoint(data):
			return SinglePoint
		case isFlat(data):
			return Flat
		case isNested(data):
			return Nested
		}
	}
	return Unknown
}

func isPointArray(data []any) bool {
	if len(data) == 0 {
		return false
	}
	first, ok := data[0].(map[string]any)
	if !ok {
		return false
	}
	_, hasID := first["id"]
	_, hasValue := first["value"]
	return hasID && hasValue && !values.Truthy(first["points"])
}

func isStandard(data map[string]any) bool {
	if !hasDeviceID(data) {
		return false
	}
	points, ok := data["points"].([]any)
	return ok && len(points) > 0
}

func isSinglePoint(data map[string]any) bool {
	_, hasValue := data["value"]
	return hasDeviceID(data) &&
		(values.Truthy(data["pointId"]) || values.Truthy(data["point"])) &&
		hasValue
}

func isFlat(data map[string]any) bool {
	if !hasDeviceID(data) {
		return false
	}
	for key := range data {
		if _, reserved := reservedKeys[key]; !reserved {
			return true
		}
	}
	return false
}

func isNested(data map[string]any) bool {
	device, ok := data["device"].(map[string]any)
	return ok && hasDeviceID(device)
}

func hasDeviceID(data map[string]any) bool {
	return values.Truthy(data["id"]) || values.Truthy(data["deviceId"])
}
