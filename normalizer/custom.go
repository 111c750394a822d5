// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package normalizer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/pkg/dotpath"
	"github.com/absmach/scadabind/pkg/errors"
	"github.com/absmach/scadabind/pkg/values"
)

// ErrUnknownPreset indicates a parser preset name that is not registered.
var ErrUnknownPreset = errors.New("unknown parser preset")

// Selector extracts a value from the whole payload.
type Selector func(data any) any

// PointSelector extracts a value from one element of the points list.
// The whole payload is passed along for selectors that need context.
type PointSelector func(data, point any) any

// Path returns a Selector reading a dot-path from the payload.
func Path(path string) Selector {
	return func(data any) any {
		v, _ := dotpath.Get(data, path)
		return v
	}
}

// PointPath returns a PointSelector reading a dot-path from the point.
func PointPath(path string) PointSelector {
	return func(_, point any) any {
		v, _ := dotpath.Get(point, path)
		return v
	}
}

// Mapping tells a custom parser where device and point fields live.
// DeviceID and Points are required. The rest fall back to the payload's
// own conventions: name defaults to the device id, point id to
// "id"/"pointId" and point value to "value".
type Mapping struct {
	DeviceID   Selector
	DeviceName Selector
	Points     Selector
	PointID    PointSelector
	PointValue PointSelector
}

// PathMapping is the declarative form of Mapping, used in configuration
// files where functions cannot be expressed.
type PathMapping struct {
	DeviceID   string `json:"deviceId" toml:"device_id"`
	DeviceName string `json:"deviceName,omitempty" toml:"device_name"`
	Points     string `json:"points" toml:"points"`
	PointID    string `json:"pointId,omitempty" toml:"point_id"`
	PointValue string `json:"pointValue,omitempty" toml:"point_value"`
}

// Mapping converts the path form into selectors.
func (pm PathMapping) Mapping() Mapping {
	m := Mapping{
		DeviceID: Path(pm.DeviceID),
		Points:   Path(pm.Points),
	}
	if pm.DeviceName != "" {
		m.DeviceName = Path(pm.DeviceName)
	}
	if pm.PointID != "" {
		m.PointID = PointPath(pm.PointID)
	}
	if pm.PointValue != "" {
		m.PointValue = PointPath(pm.PointValue)
	}
	return m
}

var _ Service = (*customParser)(nil)

type customParser struct {
	mapping Mapping
	now     func() time.Time
}

// NewCustom returns a parser driven by explicit field selectors instead of
// shape detection.
func NewCustom(m Mapping, opts ...Option) Service {
	n := &normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return &customParser{mapping: m, now: n.now}
}

func (cp *customParser) Parse(raw any, defaultID, defaultName string) (scadabind.Device, error) {
	if !values.Truthy(raw) || cp.mapping.DeviceID == nil || cp.mapping.Points == nil {
		return scadabind.Device{}, ErrUnrecognizedFormat
	}

	id, ok := values.ID(cp.mapping.DeviceID(raw))
	if !ok {
		id = defaultID
	}
	if id == "" {
		id = DefaultDeviceID
	}
	name := id
	if cp.mapping.DeviceName != nil {
		if n, ok := values.ID(cp.mapping.DeviceName(raw)); ok {
			name = n
		} else if defaultName != "" {
			name = defaultName
		}
	}

	selected := cp.mapping.Points(raw)
	if selected == nil {
		return scadabind.Device{}, ErrUnrecognizedFormat
	}
	items, ok := selected.([]any)
	if !ok {
		items = []any{selected}
	}

	points := make([]scadabind.Point, 0, len(items))
	for _, item := range items {
		p, _ := item.(map[string]any)
		pid := cp.pointID(raw, item, p)
		if pid == "" {
			continue
		}
		value := cp.pointValue(raw, item, p)
		points = append(points, scadabind.Point{
			ID:        pid,
			Name:      firstOr(pid, p, "name"),
			Value:     value,
			Quality:   quality(p["quality"]),
			Timestamp: cp.timestamp(p["timestamp"]),
			Unit:      str(p["unit"]),
			DataType:  scadabind.InferDataType(value),
		})
	}
	if len(points) == 0 {
		return scadabind.Device{}, ErrUnrecognizedFormat
	}

	return scadabind.Device{ID: id, Name: name, Points: points}, nil
}

func (cp *customParser) pointID(raw, item any, p map[string]any) string {
	if cp.mapping.PointID != nil {
		id, _ := values.ID(cp.mapping.PointID(raw, item))
		return id
	}
	return first(p, "id", "pointId")
}

func (cp *customParser) pointValue(raw, item any, p map[string]any) any {
	if cp.mapping.PointValue != nil {
		return cp.mapping.PointValue(raw, item)
	}
	return p["value"]
}

func (cp *customParser) timestamp(v any) string {
	n := normalizer{now: cp.now}
	return n.timestamp(v)
}

// Preset names.
const (
	PresetIoTPlatform = "iotPlatform"
	PresetModbus      = "modbus"
	PresetOPCUA       = "opcua"
)

// IoTPlatform reads {deviceInfo: {id, name}, telemetry: [{key, value}]}.
var IoTPlatform = Mapping{
	DeviceID:   Path("deviceInfo.id"),
	DeviceName: Path("deviceInfo.name"),
	Points:     Path("telemetry"),
	PointID:    PointPath("key"),
	PointValue: PointPath("value"),
}

// Modbus reads {slaveId, slaveName, registers: [{address, value}]}.
// Register points are named reg_<address>.
var Modbus = Mapping{
	DeviceID:   Path("slaveId"),
	DeviceName: Path("slaveName"),
	Points:     Path("registers"),
	PointID: func(_, point any) any {
		addr, ok := dotpath.Lookup(point, "address")
		if !ok {
			return nil
		}
		return fmt.Sprintf("reg_%s", values.String(addr))
	},
	PointValue: PointPath("value"),
}

// OPCUA reads {nodeId, displayName, values: [{browseName, value: {value}}]}.
var OPCUA = Mapping{
	DeviceID:   Path("nodeId"),
	DeviceName: Path("displayName"),
	Points:     Path("values"),
	PointID:    PointPath("browseName"),
	PointValue: PointPath("value.value"),
}

var presets = map[string]Mapping{
	PresetIoTPlatform: IoTPlatform,
	PresetModbus:      Modbus,
	PresetOPCUA:       OPCUA,
}

// Preset returns a parser for a registered payload convention.
func Preset(name string, opts ...Option) (Service, error) {
	m, ok := presets[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownPreset, fmt.Errorf("%q, expected one of %s", name, strings.Join(PresetNames(), ", ")))
	}
	return NewCustom(m, opts...), nil
}

// PresetNames lists the registered preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
