// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package normalizer converts heterogeneous telemetry payloads into the
// canonical scadabind.Device model.
package normalizer

import (
	"github.com/absmach/scadabind"
	"github.com/absmach/scadabind/pkg/errors"
)

const (
	// DefaultDeviceID is used when a payload carries no device identity.
	DefaultDeviceID = "default-device"
	// DefaultDeviceName is used when a payload carries no device name.
	DefaultDeviceName = "Default Device"
)

// ErrUnrecognizedFormat indicates a payload that matches none of the
// supported shapes.
var ErrUnrecognizedFormat = errors.New("unrecognized payload format")

// SupportedFormats lists the shapes understood by the default parser in
// the order they are tried.
const SupportedFormats = `[{id, value}, ...] | {id|deviceId, points: [...]} | {deviceId|id, pointId|point, value} | {deviceId|id, key: value, ...} | {device: {id, data|points}}`

// Service specifies API for normalizing payloads.
type Service interface {
	// Parse converts raw into a Device. The default id and name are used
	// by shapes that do not carry a device identity. Parse never mutates raw.
	Parse(raw any, defaultID, defaultName string) (scadabind.Device, error)
}
