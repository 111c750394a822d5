// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package normalizer

import (
	"sort"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/pkg/values"
)

var _ Service = (*normalizer)(nil)

// Option configures the default normalizer.
type Option func(*normalizer)

// WithClock sets the clock used to stamp points that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(n *normalizer) {
		n.now = now
	}
}

type normalizer struct {
	now func() time.Time
}

// New returns the default normalizer, which recognizes every supported shape.
func New(opts ...Option) Service {
	n := &normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *normalizer) Parse(raw any, defaultID, defaultName string) (scadabind.Device, error) {
	switch shape := Classify(raw); shape {
	case PointArray:
		return n.parsePointArray(raw.([]any), defaultID, defaultName), nil
	case Standard:
		return n.parseStandard(raw.(map[string]any)), nil
	case SinglePoint:
		return n.parseSinglePoint(raw.(map[string]any)), nil
	case Flat:
		return n.parseFlat(raw.(map[string]any)), nil
	case Nested:
		return n.parseNested(raw.(map[string]any), defaultID, defaultName)
	case Unknown:
		return scadabind.Device{}, ErrUnrecognizedFormat
	default:
		return scadabind.Device{}, ErrUnrecognizedFormat
	}
}

func (n *normalizer) parsePointArray(data []any, defaultID, defaultName string) scadabind.Device {
	if defaultID == "" {
		defaultID = DefaultDeviceID
	}
	if defaultName == "" {
		defaultName = DefaultDeviceName
	}
	return scadabind.Device{
		ID:     defaultID,
		Name:   defaultName,
		Points: n.points(data),
	}
}

func (n *normalizer) parseStandard(data map[string]any) scadabind.Device {
	id := first(data, "id", "deviceId")
	return scadabind.Device{
		ID:     id,
		Name:   firstOr(id, data, "name", "deviceName"),
		Points: n.points(data["points"].([]any)),
	}
}

func (n *normalizer) parseSinglePoint(data map[string]any) scadabind.Device {
	id := first(data, "deviceId", "id")
	pointID := first(data, "pointId", "point")
	return scadabind.Device{
		ID:   id,
		Name: firstOr(id, data, "deviceName"),
		Points: []scadabind.Point{{
			ID:        pointID,
			Name:      firstOr(pointID, data, "pointName"),
			Value:     data["value"],
			Quality:   quality(data["quality"]),
			Timestamp: n.timestamp(data["timestamp"]),
			Unit:      str(data["unit"]),
			DataType:  dataType(data["dataType"], data["value"]),
		}},
	}
}

// Flat points are emitted in key order so output is deterministic.
func (n *normalizer) parseFlat(data map[string]any) scadabind.Device {
	id := first(data, "deviceId", "id")
	ts := n.timestamp(data["timestamp"])

	keys := make([]string, 0, len(data))
	for key := range data {
		if _, reserved := reservedKeys[key]; !reserved {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	points := make([]scadabind.Point, 0, len(keys))
	for _, key := range keys {
		points = append(points, scadabind.Point{
			ID:        key,
			Name:      key,
			Value:     data[key],
			Quality:   scadabind.QualityGood,
			Timestamp: ts,
			DataType:  scadabind.InferDataType(data[key]),
		})
	}

	return scadabind.Device{
		ID:     id,
		Name:   firstOr(id, data, "deviceName", "name"),
		Points: points,
	}
}

// The wrapper identity is attached to the inner data before it is parsed
// again. The input map is never modified.
func (n *normalizer) parseNested(data map[string]any, defaultID, defaultName string) (scadabind.Device, error) {
	device := data["device"].(map[string]any)

	inner, hasData := device["data"].(map[string]any)
	points, hasPoints := device["points"]
	if !values.Truthy(device["data"]) && !values.Truthy(points) {
		return n.Parse(device, defaultID, defaultName)
	}

	merged := make(map[string]any, len(inner)+3)
	if hasData {
		for k, v := range inner {
			merged[k] = v
		}
	}
	merged["deviceId"] = device["id"]
	if !values.Truthy(merged["deviceId"]) {
		merged["deviceId"] = device["deviceId"]
	}
	if name := firstOr("", device, "name", "deviceName"); name != "" {
		merged["deviceName"] = name
	} else if name := firstOr("", data, "name", "deviceName"); name != "" {
		merged["deviceName"] = name
	}
	if hasPoints && points != nil {
		merged["points"] = points
	}

	return n.Parse(merged, defaultID, defaultName)
}

func (n *normalizer) points(data []any) []scadabind.Point {
	points := make([]scadabind.Point, 0, len(data))
	for _, item := range data {
		p, _ := item.(map[string]any)
		id := first(p, "id", "pointId")
		points = append(points, scadabind.Point{
			ID:        id,
			Name:      firstOr(id, p, "name", "pointName"),
			Value:     p["value"],
			Quality:   quality(p["quality"]),
			Timestamp: n.timestamp(p["timestamp"]),
			Unit:      str(p["unit"]),
			DataType:  dataType(p["dataType"], p["value"]),
		})
	}
	return points
}

// Numeric timestamps are treated as Unix milliseconds.
func (n *normalizer) timestamp(v any) string {
	if values.Truthy(v) {
		if s, ok := v.(string); ok {
			return s
		}
		if ms, ok := values.Number(v); ok {
			return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
		}
	}
	return n.now().UTC().Format(time.RFC3339Nano)
}

func first(data map[string]any, keys ...string) string {
	return firstOr("", data, keys...)
}

func firstOr(fallback string, data map[string]any, keys ...string) string {
	for _, key := range keys {
		if id, ok := values.ID(data[key]); ok {
			return id
		}
	}
	return fallback
}

func quality(v any) scadabind.Quality {
	if q, ok := values.ID(v); ok {
		return scadabind.Quality(q)
	}
	return scadabind.QualityGood
}

func dataType(declared, value any) scadabind.DataType {
	if dt, ok := values.ID(declared); ok {
		return scadabind.DataType(dt)
	}
	return scadabind.InferDataType(value)
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
