// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package binding

import (
	"github.com/absmach/scadabind/pkg/values"
)

const (
	idKey      = "id"
	valueKey   = "value"
	devicesKey = "devices"
	pointsKey  = "points"
)

// Extract finds the value of pointID in a raw payload. It tries a point
// array, then a direct key, then the points of a devices wrapper. When
// deviceID is set, only that device of the wrapper is searched. A nil
// value counts as a miss.
func Extract(payload any, pointID, deviceID string) (any, bool) {
	switch p := payload.(type) {
	case []any:
		return pointValue(p, pointID)
	case map[string]any:
		if v, ok := p[pointID]; ok && v != nil {
			return v, true
		}
		devices, ok := p[devicesKey].([]any)
		if !ok {
			return nil, false
		}
		for _, d := range devices {
			dev, ok := d.(map[string]any)
			if !ok {
				continue
			}
			if deviceID != "" {
				if id, ok := values.ID(dev[idKey]); !ok || id != deviceID {
					continue
				}
			}
			points, ok := dev[pointsKey].([]any)
			if !ok {
				continue
			}
			if v, ok := pointValue(points, pointID); ok {
				return v, true
			}
		}
	}

	return nil, false
}

func pointValue(points []any, pointID string) (any, bool) {
	for _, p := range points {
		point, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := values.ID(point[idKey]); !ok || id != pointID {
			continue
		}
		if v, ok := point[valueKey]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
