// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package scadabind contains the canonical device model produced by the
// ingestion pipeline and the interfaces shared between its services.
package scadabind

// Quality represents the reliability of a point value.
type Quality string

const (
	QualityGood      Quality = "good"
	QualityBad       Quality = "bad"
	QualityUncertain Quality = "uncertain"
)

// DataType is the runtime type of a point value.
type DataType string

const (
	DataTypeBoolean DataType = "boolean"
	DataTypeNumber  DataType = "number"
	DataTypeString  DataType = "string"
)

// AccessMode tells whether a point can be read, written or both.
type AccessMode string

const (
	AccessRead      AccessMode = "read"
	AccessWrite     AccessMode = "write"
	AccessReadWrite AccessMode = "readWrite"
)

// Point is a single telemetry value of a device.
type Point struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Code       string     `json:"code,omitempty"`
	Value      any        `json:"value"`
	Quality    Quality    `json:"quality,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
	Unit       string     `json:"unit,omitempty"`
	DataType   DataType   `json:"dataType,omitempty"`
	AccessMode AccessMode `json:"accessMode,omitempty"`
}

// Device is the normalized form of one inbound payload.
type Device struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Point returns the point with the given id. Later duplicates win.
func (d Device) Point(id string) (Point, bool) {
	for i := len(d.Points) - 1; i >= 0; i-- {
		if d.Points[i].ID == id {
			return d.Points[i], true
		}
	}
	return Point{}, false
}

// InferDataType maps the Go type of a decoded JSON value to a DataType.
func InferDataType(v any) DataType {
	switch v.(type) {
	case bool:
		return DataTypeBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return DataTypeNumber
	default:
		return DataTypeString
	}
}
